package cli

import (
	"github.com/spf13/cobra"
)

// diagramFormats are offered when completing --format. Any other format the
// installed Structurizr CLI supports is accepted as well.
var diagramFormats = []string{"png", "svg", "plantuml", "mermaid", "dot", "ilograph", "websequencediagrams"}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for dslstructurizr.

Completions cover the commands, source directories for build, plan and cache,
configuration files for --config and diagram formats for --format:

  $ dslstructurizr build docs --format <TAB>
  png  svg  plantuml  mermaid  ...

Load them for the current session:

  $ source <(dslstructurizr completion bash)
  $ dslstructurizr completion fish | source
  PS> dslstructurizr completion powershell | Out-String | Invoke-Expression

or install them once, e.g. for zsh:

  $ dslstructurizr completion zsh > "${fpath[1]}/_dslstructurizr"
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

// completeSourceDir completes the optional [dir] argument with directories.
func completeSourceDir(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveFilterDirs
}

// completeFormat completes --format with the common diagram formats.
func completeFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return diagramFormats, cobra.ShellCompDirectiveNoFileComp
}
