package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blik/pkg/pipeline"
)

// depictCommand creates the depict command, which writes scene layers as JSON.
func (c *CLI) depictCommand() *cobra.Command {
	var (
		flags  loadFlags
		output string
		show   string
		length float64
	)

	cmd := &cobra.Command{
		Use:   "depict <file>...",
		Short: "Write the layers of the depicted data set as JSON",
		Long: `Read the files, depict every block and write the resulting layer
descriptors as JSON. Layers of the volume chosen with --show are marked
visible along with omni layers; without --show every layer is visible.

Results are cached, so depicting unchanged files again is immediate.

Examples:
  blik depict run_data.star -o layers.json
  blik depict --show TS_01 --vector-length 20 run_data.star tomo.fits`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, args, &flags)
			opts.Show = show
			if cmd.Flags().Changed("vector-length") {
				opts.VectorLength = length
			}
			return c.runDepict(cmd.Context(), opts, output)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&show, "show", "", "volume to mark visible")
	cmd.Flags().Float64Var(&length, "vector-length", pipeline.DefaultVectorLength, "length of orientation vectors")

	return cmd
}

func (c *CLI) runDepict(ctx context.Context, opts pipeline.Options, output string) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, "Depicting...")
	spinner.Start()
	data, cacheHit, err := runner.SceneJSONWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Depiction failed")
		return fmt.Errorf("depict: %w", err)
	}
	spinner.Stop()

	if output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	status := iconFresh
	if cacheHit {
		status = iconCached
	}
	printSuccess("Depicted %s (%s)", plural(len(opts.Paths), "file"), status)
	printFile(output)
	return nil
}
