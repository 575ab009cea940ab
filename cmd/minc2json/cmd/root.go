package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-minc/hdf5"
	"github.com/robert-malhotra/go-minc/internal/config"
	"github.com/robert-malhotra/go-minc/internal/log"
)

var (
	configPath string
	verbose    bool

	cfg = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "minc2json",
	Short: "Decode MINC volumes into a JSON header and float32 voxels",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.LoadConfig(configPath)
		checkErr(err)
		cfg = loaded
		level, err := log.ParseLevel(cfg.LogLevel)
		checkErr(err)
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func bailf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func checkErr(err error) {
	if err != nil {
		bailf("error: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "minc2json.yaml", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// decodeOptions returns the decoder options selected by the config. Decoder
// debug records go to the default logger and are dropped unless --verbose
// or a debug log level is set.
func decodeOptions() []hdf5.Option {
	return append(cfg.HDF5Options(), hdf5.WithLogger(slog.Default()))
}
