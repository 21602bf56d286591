package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var completionNoDesc bool

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate a shell completion script for pluginupdater.

Bash:
  $ source <(pluginupdater completion bash)
  $ pluginupdater completion bash > /etc/bash_completion.d/pluginupdater

Zsh:
  $ pluginupdater completion zsh > "${fpath[1]}/_pluginupdater"

Fish:
  $ pluginupdater completion fish > ~/.config/fish/completions/pluginupdater.fish

PowerShell:
  PS> pluginupdater completion powershell | Out-String | Invoke-Expression

Completions cover subcommands, flags and the --output formats.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeCompletion(cmd.Root(), cmd.OutOrStdout(), args[0], !completionNoDesc)
		},
	}

	cmd.Flags().BoolVar(&completionNoDesc, "no-descriptions", false, "Omit command and flag descriptions")

	return cmd
}

func writeCompletion(root *cobra.Command, out io.Writer, shell string, withDesc bool) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(out, withDesc)
	case "zsh":
		if withDesc {
			return root.GenZshCompletion(out)
		}
		return root.GenZshCompletionNoDesc(out)
	case "fish":
		return root.GenFishCompletion(out, withDesc)
	case "powershell":
		if withDesc {
			return root.GenPowerShellCompletionWithDesc(out)
		}
		return root.GenPowerShellCompletion(out)
	}
	return fmt.Errorf("unsupported shell: %s", shell)
}
