package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/go-minc/internal/log"
	"github.com/robert-malhotra/go-minc/volume"
)

var (
	convertOutputDir string
	convertWorkers   int
)

// baseName strips the directory and every extension, so brain.mnc and
// brain.mnc.gz both become "brain".
func baseName(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}

// convertFile writes NAME.header.json and NAME.raw for one input.
func convertFile(ctx context.Context, path, outDir string) error {
	ctx = log.AddTags(ctx, "file", path)
	v, err := volume.Open(ctx, path, decodeOptions()...)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Join(outDir, baseName(path))
	if err := os.WriteFile(base+".header.json", []byte(v.HeaderText()), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(base+".raw", v.RawData(), 0644); err != nil {
		return err
	}
	log.Infow(ctx, "converted", "output", base, "voxels", len(v.Data), "format", v.Format)
	return nil
}

// convertAll converts paths with at most workers conversions in flight. The
// first failure cancels conversions that have not started.
func convertAll(ctx context.Context, paths []string, outDir string, workers int) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return convertFile(ctx, path, outDir)
		})
	}
	return g.Wait()
}

var convertCmd = &cobra.Command{
	Use:   "convert [file]...",
	Short: "Write the header JSON and raw float32 voxels of MINC files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		workers := cfg.Workers
		if cmd.Flags().Changed("jobs") {
			workers = convertWorkers
		}
		if workers < 1 {
			bailf("jobs must be positive, got %d", workers)
		}
		checkErr(convertAll(cmd.Context(), args, convertOutputDir, workers))
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.PersistentFlags().StringVarP(&convertOutputDir, "output", "o", ".", "output directory")
	convertCmd.PersistentFlags().IntVarP(&convertWorkers, "jobs", "j", 1, "files converted in parallel (default from config)")
}
