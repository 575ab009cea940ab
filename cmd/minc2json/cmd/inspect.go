package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"github.com/robert-malhotra/go-minc/hdf5"
	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/log"
	"github.com/robert-malhotra/go-minc/volume"
)

var inspectNoColor bool

var treeStyle = hdf5.Style{
	Name:      color.New(color.FgHiBlue, color.Bold).SprintFunc(),
	Type:      color.New(color.FgGreen).SprintFunc(),
	Attribute: color.New(color.FgYellow).SprintFunc(),
}

// summarize prints the number of datasets per element type, in type order.
func summarize(w io.Writer, root *hdf5.Node) error {
	counts := map[dtype.ElementType]int{}
	err := hdf5.Walk(root, func(_ string, n *hdf5.Node) error {
		if n.IsDataset() {
			counts[n.Type]++
		}
		return nil
	})
	if err != nil {
		return err
	}
	types := maps.Keys(counts)
	slices.Sort(types)
	for _, t := range types {
		if _, err := fmt.Fprintf(w, "%s: %d datasets\n", t, counts[t]); err != nil {
			return err
		}
	}
	return nil
}

func inspect(ctx context.Context, w io.Writer, path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	root, format, err := volume.ReadTree(ctx, buf, decodeOptions()...)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(w, "%s (%s)\n", path, format)
	if err := root.Print(w, treeStyle); err != nil {
		return err
	}
	return summarize(w, root)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]...",
	Short: "Print the object tree of MINC files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if inspectNoColor {
			color.NoColor = true
		}
		for _, path := range args {
			ctx := log.AddTags(cmd.Context(), "file", path)
			checkErr(inspect(ctx, cmd.OutOrStdout(), path))
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.PersistentFlags().BoolVarP(&inspectNoColor, "no-color", "", false, "disable colored output")
}
