package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blik/pkg/block"
	blikio "github.com/matzehuels/blik/pkg/io"
)

const picksSTAR = `
data_particles

loop_
_rlnCoordinateX #1
_rlnCoordinateY #2
_rlnCoordinateZ #3
_rlnMicrographName #4
1 2 3 TS_01
4 5 6 TS_02
`

func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	return New(io.Discard, log.InfoLevel)
}

func execute(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCacheDir(t *testing.T) {
	t.Run("xdg", func(t *testing.T) {
		custom := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", custom)
		dir, err := cacheDir()
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(custom, appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})

	t.Run("home", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		dir, err := cacheDir()
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(home, ".cache", appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})

	t.Run("configured", func(t *testing.T) {
		c := newTestCLI(t)
		c.Config.Cache.Dir = "/srv/blik-cache"
		if dir, _ := c.cacheDir(); dir != "/srv/blik-cache" {
			t.Errorf("cacheDir() = %q", dir)
		}
	})
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newTestCLI(t).RootCommand()
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	want := []string{"browse", "cache", "completion", "config", "convert", "depict", "info", "serve"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subcommands mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigCommand(t *testing.T) {
	c := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "blik.yaml")
	if err := os.WriteFile(path, []byte("depict:\n  vector_length: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, c, "--config", path, "config")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "vector_length = 7.0") {
		t.Errorf("config output does not show the file value:\n%s", out)
	}
}

func TestOptionsPrecedence(t *testing.T) {
	c := newTestCLI(t)
	c.Config.Load.PixelSize = 2
	c.Config.Load.Strict = true

	cmd := &cobra.Command{Use: "probe"}
	var flags loadFlags
	flags.register(cmd)
	if err := cmd.ParseFlags([]string{"--strict=false"}); err != nil {
		t.Fatal(err)
	}
	opts := c.options(cmd, []string{"a.star"}, &flags)
	if opts.Strict {
		t.Error("--strict=false should override the config")
	}
	if opts.PixelSize != 2 {
		t.Errorf("PixelSize = %g, want config value 2", opts.PixelSize)
	}
}

func TestOutputPaths(t *testing.T) {
	var blocks []block.Block
	for _, name := range []string{"picks_TS_01", "run/TS 02"} {
		b, err := block.NewPointBlock([][]float64{{0, 0, 0}}, block.WithName(name))
		if err != nil {
			t.Fatal(err)
		}
		blocks = append(blocks, b)
	}

	if got := outputPaths("out.star", blocks[:1]); !cmp.Equal(got, []string{"out.star"}) {
		t.Errorf("single block: %v", got)
	}
	want := []string{"out/all_picks_TS_01.tbl", "out/all_run_TS_02.tbl"}
	if diff := cmp.Diff(want, outputPaths("out/all.tbl", blocks)); diff != "" {
		t.Errorf("outputPaths mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "picks.star")
	if err := os.WriteFile(input, []byte(picksSTAR), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.star")

	if _, err := execute(t, newTestCLI(t), "--no-cache", "convert", input, "--pixel-size", "1.5", "-o", output); err != nil {
		t.Fatal(err)
	}
	for _, volume := range []string{"TS_01", "TS_02"} {
		path := filepath.Join(dir, "out_picks_"+volume+".star")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}
}

func TestConvertRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, newTestCLI(t), "--no-cache", "convert", "in.star", "-o", "out.xyz")
	if err == nil {
		t.Fatal("expected an error for an unknown output format")
	}
}

func TestDepictCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "picks.star")
	if err := os.WriteFile(input, []byte(picksSTAR), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "layers.json")

	if _, err := execute(t, newTestCLI(t), "depict", input, "--show", "TS_01", "-o", output); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"volume": "TS_01"`)) {
		t.Errorf("layers.json does not record the shown volume:\n%s", data)
	}
}

func TestWritable(t *testing.T) {
	pts, _ := block.NewPointBlock([][]float64{{0, 0, 0}}, block.WithName("p"))
	img, err := block.NewImageBlock(block.Voxels{Shape: []int{1, 1, 1}, Data: []float32{0}}, block.WithName("i"))
	if err != nil {
		t.Fatal(err)
	}
	blocks := []block.Block{pts, img}
	if got := writable(blocks, blikio.FormatFITS); len(got) != 1 || got[0] != img {
		t.Errorf("fits writable = %v", got)
	}
	if got := writable(blocks, blikio.FormatSTAR); len(got) != 0 {
		t.Errorf("bare points are not particles, got %v", got)
	}
}

func TestCompletions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"input files", []string{"__complete", "info", ""}, []string{"star", "tbl", "box", "fits", ":8"}},
		{"output formats", []string{"__complete", "convert", "in.star", "--output", ""}, []string{"star", "tbl", "fits", ":8"}},
		{"info modes", []string{"__complete", "info", "in.star", "--mode", "nested"}, []string{"nested", "nested_compact", ":4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, newTestCLI(t), tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want+"\n") {
					t.Errorf("completion output lacks %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, newTestCLI(t), "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "__start_blik") {
		t.Errorf("bash completion does not define __start_blik:\n%.200s", out)
	}
}
