package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blik/pkg/dataset"
	"github.com/matzehuels/blik/pkg/pipeline"
)

// infoCommand creates the info command, which summarises a data set.
func (c *CLI) infoCommand() *cobra.Command {
	var (
		flags loadFlags
		mode  string
		asTbl bool
	)

	cmd := &cobra.Command{
		Use:   "info <file>...",
		Short: "Summarise the blocks read from files",
		Long: `Read the files and print the resulting data set grouped by volume.

The --mode flag picks the layout: base, flat_compact, flat, nested_compact,
nested or full. Compact layouts elide the middle of long lists.

Examples:
  blik info run_data.star
  blik info --mode full picks/*.tbl tomo.fits
  blik info --table run_data.star`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := dataset.ParseMode(mode)
			if err != nil {
				return err
			}
			return c.runInfo(cmd.Context(), c.options(cmd, args, &flags), m, asTbl)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&mode, "mode", string(dataset.ModeNestedCompact), "print layout")
	cmd.Flags().BoolVar(&asTbl, "table", false, "print one table row per block")

	return cmd
}

func (c *CLI) runInfo(ctx context.Context, opts pipeline.Options, mode dataset.Mode, asTable bool) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	prog.done("Loaded data set", "files", res.Stats.Files)

	printFailures(res)
	if asTable {
		fmt.Println(renderBlockTable(res.DataSet))
	} else {
		text, err := res.DataSet.Format(mode)
		if err != nil {
			return err
		}
		fmt.Println(text)
	}
	fmt.Println(statsLine(res.Stats, res.CacheInfo))
	return nil
}
