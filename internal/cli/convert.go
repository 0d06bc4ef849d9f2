package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
	blikio "github.com/matzehuels/blik/pkg/io"
	"github.com/matzehuels/blik/pkg/pipeline"
)

// convertCommand creates the convert command, which rewrites blocks in the
// format given by the output extension.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		flags  loadFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "convert <file>... -o <output>",
		Short: "Convert particles or images to another file format",
		Long: `Read the files and write their blocks in the format chosen by the
extension of --output: .star (RELION 3.1), .tbl (Dynamo) or .fits.

When several blocks can be written, each goes to its own file named after
the output with the block name appended, e.g. out_TS_01.star.

Examples:
  blik convert picks.tbl -o picks.star
  blik convert --pixel-size 1.35 --volume TS_01 picks.box -o picks.star`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--output is required")
			}
			return c.runConvert(cmd.Context(), c.options(cmd, args, &flags), output)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; the extension selects the format")

	return cmd
}

func (c *CLI) runConvert(ctx context.Context, opts pipeline.Options, output string) error {
	writer, err := blikio.WriterFor(output, blikio.DefaultWriters())
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	printFailures(res)

	blocks := writable(res.DataSet.Blocks(), writer.Format())
	if len(blocks) == 0 {
		return errors.New(errors.ErrCodeUnsupported, "no block can be written as %s", writer.Format())
	}
	for i, path := range outputPaths(output, blocks) {
		if err := writer.Write(blocks[i], path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printSuccess("Converted %s to %s", plural(len(blocks), "block"), writer.Format())
	return nil
}

// writable keeps the blocks the writer for format accepts.
func writable(blocks []block.Block, format string) []block.Block {
	var out []block.Block
	for _, b := range blocks {
		switch b.Kind() {
		case block.KindImage:
			if format == blikio.FormatFITS {
				out = append(out, b)
			}
		case block.KindParticle, block.KindOrientedPoint:
			if format != blikio.FormatFITS {
				out = append(out, b)
			}
		}
	}
	return out
}

// outputPaths returns output for a single block, or one path per block with
// the block name inserted before the extension.
func outputPaths(output string, blocks []block.Block) []string {
	if len(blocks) == 1 {
		return []string{output}
	}
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	paths := make([]string, len(blocks))
	for i, b := range blocks {
		paths[i] = fmt.Sprintf("%s_%s%s", base, safeName(b.Identity().Name()), ext)
	}
	return paths
}

// safeName replaces path separators and spaces in a block name.
func safeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':':
			return '_'
		}
		return r
	}, name)
}
