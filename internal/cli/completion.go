package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blik/pkg/dataset"
	blikio "github.com/matzehuels/blik/pkg/io"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for blik.

Besides subcommands and flags, the scripts complete:
  - input files of info, depict, convert, serve and browse, filtered to
    the formats blik reads (.star, .tbl, .box, .fits)
  - the output file of convert, filtered to the formats blik writes
  - the layouts accepted by info --mode

Bash:
  $ source <(blik completion bash)
  $ blik completion bash > /etc/bash_completion.d/blik

Zsh:
  $ blik completion zsh > "${fpath[1]}/_blik"

Fish:
  $ blik completion fish > ~/.config/fish/completions/blik.fish

PowerShell:
  PS> blik completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// registerCompletions attaches file and flag value completion to the
// subcommands of root.
func registerCompletions(root *cobra.Command) {
	inputs := completeExtensions(blikio.DefaultDispatcher().Extensions())
	var written []string
	for _, w := range blikio.DefaultWriters() {
		written = append(written, w.Extensions()...)
	}

	for _, cmd := range root.Commands() {
		switch cmd.Name() {
		case "info", "depict", "convert", "serve", "browse":
			cmd.ValidArgsFunction = inputs
		}
		switch cmd.Name() {
		case "info":
			_ = cmd.RegisterFlagCompletionFunc("mode", completeModes)
		case "convert":
			_ = cmd.RegisterFlagCompletionFunc("output", completeExtensions(written))
		}
	}
}

// completeExtensions offers files with one of the given extensions.
func completeExtensions(exts []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	trimmed := make([]string, 0, len(exts))
	for _, e := range exts {
		trimmed = append(trimmed, strings.TrimPrefix(e, "."))
	}
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return trimmed, cobra.ShellCompDirectiveFilterFileExt
	}
}

func completeModes(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, m := range dataset.Modes {
		if strings.HasPrefix(string(m), toComplete) {
			out = append(out, string(m))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
