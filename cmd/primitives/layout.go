package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vango-dev/primitives/internal/errors"
	"github.com/vango-dev/primitives/pkg/masonry"
)

func layoutCmd() *cobra.Command {
	var (
		columns int
		gap     float64
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "layout <height>...",
		Short: "Compute a masonry layout",
		Long: `Place items with the given heights into columns, each item going to
the currently shortest column.

Examples:
  primitives layout 120 80 200 60
  primitives layout --columns 2 --gap 8 120 80 200 60`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if columns < 1 {
				return errors.New("E501").WithDetail("--columns must be at least 1")
			}
			heights := make([]float64, len(args))
			for i, arg := range args {
				h, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return errors.New("E501").WithDetailf("height %q", arg).Wrap(err)
				}
				heights[i] = h
			}

			res := masonry.Layout(heights, columns, gap)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			for i, p := range res.Placements {
				fmt.Fprintf(out, "item %-3d column %d  top %-8g height %g\n", i, p.Column, p.Top, p.Height)
			}
			fmt.Fprintf(out, "height %g\n", res.Height)
			return nil
		},
	}

	cmd.Flags().IntVarP(&columns, "columns", "n", 3, "Number of columns")
	cmd.Flags().Float64VarP(&gap, "gap", "g", 0, "Gap between stacked items")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the layout as JSON")

	return cmd
}
