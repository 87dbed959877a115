package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command. Completion scripts are
// written to the command's output so they can be piped.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for intelgraph.

To load completions:

Bash:
  $ source <(intelgraph completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ intelgraph completion bash > /etc/bash_completion.d/intelgraph
  # macOS:
  $ intelgraph completion bash > $(brew --prefix)/etc/bash_completion.d/intelgraph

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ intelgraph completion zsh > "${fpath[1]}/_intelgraph"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ intelgraph completion fish | source

  # To load completions for each session, execute once:
  $ intelgraph completion fish > ~/.config/fish/completions/intelgraph.fish

PowerShell:
  PS> intelgraph completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> intelgraph completion powershell > intelgraph.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			w, root := cmd.OutOrStdout(), cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}
