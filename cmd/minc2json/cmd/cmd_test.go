package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-minc/hdf5"
	"github.com/robert-malhotra/go-minc/internal/fixture"
	"github.com/robert-malhotra/go-minc/volume"
)

func testVolume(sb uint8) []byte {
	var e fixture.Encoder
	data := make([]byte, 6)
	for i := range data {
		data[i] = byte(i * 50)
	}
	return fixture.MINC(fixture.Volume{
		Superblock: sb,
		Axes: []fixture.Axis{
			{Name: "yspace", Length: 2, Step: 1, Start: 0},
			{Name: "xspace", Length: 3, Step: 0.5, Start: -1},
		},
		Type:       e.Int(1, false),
		Data:       data,
		ValidRange: []float64{0, 250},
		ImageMin:   []float64{0, 10},
		ImageMax:   []float64{1, 20},
	})
}

// writeDir creates a.mnc (MINC-2), b.mnc (superblock v0) and notes.txt.
func writeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mnc"), testVolume(2), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mnc"), testVolume(0), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	return dir
}

func TestBaseName(t *testing.T) {
	cases := map[string]string{
		"brain.mnc":          "brain",
		"/data/brain.mnc.gz": "brain",
		"noext":              "noext",
		".hidden":            ".hidden",
	}
	for in, want := range cases {
		assert.Equal(t, want, baseName(in), in)
	}
}

func TestConvertAll(t *testing.T) {
	dir := writeDir(t)
	out := filepath.Join(t.TempDir(), "out")
	paths := []string{filepath.Join(dir, "a.mnc"), filepath.Join(dir, "b.mnc")}
	require.NoError(t, convertAll(context.Background(), paths, out, 2))

	for _, name := range []string{"a", "b"} {
		text, err := os.ReadFile(filepath.Join(out, name+".header.json"))
		require.NoError(t, err)
		var h volume.Header
		require.NoError(t, json.Unmarshal(text, &h))
		assert.Equal(t, []string{"yspace", "xspace"}, h.Order)
		assert.Equal(t, "float32", h.Datatype)

		raw, err := os.ReadFile(filepath.Join(out, name+".raw"))
		require.NoError(t, err)
		assert.Len(t, raw, 4*6)
	}
}

func TestConvertAllFailure(t *testing.T) {
	dir := writeDir(t)
	paths := []string{filepath.Join(dir, "a.mnc"), filepath.Join(dir, "notes.txt")}
	err := convertAll(context.Background(), paths, t.TempDir(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, hdf5.ErrUnrecognizedFormat)
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestInspect(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	dir := writeDir(t)
	var out bytes.Buffer
	require.NoError(t, inspect(context.Background(), &out, filepath.Join(dir, "a.mnc")))
	s := out.String()
	assert.Contains(t, s, "a.mnc (hdf5)")
	assert.Contains(t, s, "minc-2.0/")
	assert.Contains(t, s, "image uint8[2, 3]:6")
	assert.Contains(t, s, "image:valid_range float64[2] {0, 250}")
	assert.Contains(t, s, "uint8: 1 datasets")
	assert.Contains(t, s, "int32: 2 datasets")
	assert.Contains(t, s, "float64: 2 datasets")
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestServeRoutes(t *testing.T) {
	dir := writeDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.mnc"), []byte("garbage"), 0644))
	routes := makeRoutes(newVolumeStore(dir))

	t.Run("list", func(t *testing.T) {
		rec := get(t, routes, "/volumes")
		require.Equal(t, http.StatusOK, rec.Code)
		var names []string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
		assert.Equal(t, []string{"a", "b", "broken"}, names)
	})
	t.Run("header", func(t *testing.T) {
		rec := get(t, routes, "/volumes/a/header")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var h volume.Header
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
		assert.Equal(t, volume.Axis{Step: 0.5, Start: -1, SpaceLength: 3}, h.Axes["xspace"])
	})
	t.Run("raw", func(t *testing.T) {
		rec := get(t, routes, "/volumes/b/raw")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
		assert.Len(t, rec.Body.Bytes(), 24)
	})
	t.Run("unknown volume", func(t *testing.T) {
		rec := get(t, routes, "/volumes/c/header")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("undecodable volume", func(t *testing.T) {
		rec := get(t, routes, "/volumes/broken/raw")
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error, "unrecognized format")
	})
	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/volumes", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestVolumeStoreCaches(t *testing.T) {
	dir := writeDir(t)
	s := newVolumeStore(dir)
	v1, err := s.get(context.Background(), "a")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "a.mnc")))
	v2, err := s.get(context.Background(), "a")
	require.NoError(t, err)
	assert.Same(t, v1, v2)
}

func TestVolumeStoreDecodesConcurrently(t *testing.T) {
	dir := writeDir(t)
	s := newVolumeStore(dir)

	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	s.open = func(ctx context.Context, path string, opts ...hdf5.Option) (*volume.Volume, error) {
		if filepath.Base(path) == "a.mnc" {
			if calls.Add(1) == 1 {
				close(started)
			}
			<-release
		}
		return volume.Open(ctx, path, opts...)
	}

	var wg sync.WaitGroup
	results := make([]*volume.Volume, 3)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.get(context.Background(), "a")
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	<-started

	// b decodes while a is still held.
	b, err := s.get(context.Background(), "b")
	require.NoError(t, err)
	assert.NotNil(t, b)

	close(release)
	wg.Wait()
	assert.EqualValues(t, 1, calls.Load())
	require.NotNil(t, results[0])
	for _, v := range results[1:] {
		assert.Same(t, results[0], v)
	}
}

func TestVersionString(t *testing.T) {
	assert.NotEmpty(t, versionString())
	old := version
	version = "v1.2.3"
	t.Cleanup(func() { version = old })
	assert.Equal(t, "v1.2.3", versionString())
}
