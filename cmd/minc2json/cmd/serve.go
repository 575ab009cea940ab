package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/singleflight"

	"github.com/robert-malhotra/go-minc/hdf5"
	"github.com/robert-malhotra/go-minc/internal/log"
	"github.com/robert-malhotra/go-minc/volume"
)

var (
	serveAddr string
	serveDir  string
)

// volumeStore serves the *.mnc files of one directory, decoding each on
// first use. Concurrent requests for the same volume share one decode;
// requests for other volumes do not wait on it.
type volumeStore struct {
	dir  string
	opts []hdf5.Option
	open func(ctx context.Context, path string, opts ...hdf5.Option) (*volume.Volume, error)

	decoding singleflight.Group

	mtx    sync.Mutex
	loaded map[string]*volume.Volume
}

func newVolumeStore(dir string, opts ...hdf5.Option) *volumeStore {
	return &volumeStore{
		dir:    dir,
		opts:   opts,
		open:   volume.Open,
		loaded: make(map[string]*volume.Volume),
	}
}

func (s *volumeStore) cached(name string) (*volume.Volume, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	v, ok := s.loaded[name]
	return v, ok
}

// files maps volume names to paths.
func (s *volumeStore) files() (map[string]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".mnc") {
			continue
		}
		out[strings.TrimSuffix(e.Name(), ".mnc")] = filepath.Join(s.dir, e.Name())
	}
	return out, nil
}

func (s *volumeStore) names() ([]string, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	names := maps.Keys(files)
	slices.Sort(names)
	return names, nil
}

var errNoVolume = errors.New("no such volume")

func (s *volumeStore) get(ctx context.Context, name string) (*volume.Volume, error) {
	if v, ok := s.cached(name); ok {
		return v, nil
	}
	res, err, _ := s.decoding.Do(name, func() (any, error) {
		if v, ok := s.cached(name); ok {
			return v, nil
		}
		files, err := s.files()
		if err != nil {
			return nil, err
		}
		path, ok := files[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errNoVolume, name)
		}
		v, err := s.open(log.AddTags(ctx, "file", path), path, s.opts...)
		if err != nil {
			return nil, err
		}
		s.mtx.Lock()
		s.loaded[name] = v
		s.mtx.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*volume.Volume), nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errNoVolume):
		code = http.StatusNotFound
	case errors.Is(err, hdf5.ErrUnrecognizedFormat):
		code = http.StatusUnsupportedMediaType
	case errors.Is(err, hdf5.ErrUnsupportedVersion),
		errors.Is(err, hdf5.ErrUnsupportedEncoding),
		errors.Is(err, hdf5.ErrTruncatedInput),
		errors.Is(err, hdf5.ErrMalformedInput),
		errors.Is(err, hdf5.ErrMissingRequiredData):
		code = http.StatusUnprocessableEntity
	}
	log.Warnw(ctx, "request failed", "status", code, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: err.Error()}); err != nil {
		log.Errorw(ctx, "error writing response", "error", err)
	}
}

func newListHandler(s *volumeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		names, err := s.names()
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(names); err != nil {
			log.Errorw(ctx, "error writing response", "error", err)
		}
	}
}

func newHeaderHandler(s *volumeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		v, err := s.get(ctx, mux.Vars(r)["name"])
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(v.HeaderText())); err != nil {
			log.Errorw(ctx, "error writing response", "error", err)
		}
	}
}

func newRawHandler(s *volumeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		v, err := s.get(ctx, mux.Vars(r)["name"])
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		raw := v.RawData()
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", fmt.Sprint(len(raw)))
		if _, err := w.Write(raw); err != nil {
			log.Errorw(ctx, "error writing response", "error", err)
		}
	}
}

func makeRoutes(s *volumeStore) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/volumes", newListHandler(s)).Methods("GET")
	r.HandleFunc("/volumes/{name}/header", newHeaderHandler(s)).Methods("GET")
	r.HandleFunc("/volumes/{name}/raw", newRawHandler(s)).Methods("GET")
	return r
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MINC volumes of a directory over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		addr, dir := cfg.ListenAddr, cfg.DataDir
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		if cmd.Flags().Changed("dir") {
			dir = serveDir
		}
		store := newVolumeStore(dir, decodeOptions()...)
		ctx := log.AddTags(cmd.Context(), "addr", addr)
		log.Infof(ctx, "serving volumes from %s", dir)
		checkErr(http.ListenAndServe(addr, makeRoutes(store)))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.PersistentFlags().StringVarP(&serveAddr, "addr", "", "localhost:8089", "listen address (default from config)")
	serveCmd.PersistentFlags().StringVarP(&serveDir, "dir", "", ".", "directory of .mnc files (default from config)")
}
