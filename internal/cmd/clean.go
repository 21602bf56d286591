package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/adamancini/pluginupdater/internal/output"
	"github.com/adamancini/pluginupdater/internal/update"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean <dir>",
		Short: "Delete a directory tree without following symlinks",
		Long: `Clean removes a directory and everything below it, the same way failed
downloads are discarded. Symlinks are removed, never followed, and the
filesystem root or a drive root is refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := update.NewCleaner(afero.NewOsFs()).DeleteAll(args[0])
			if err := writeOutput(cmd, output.NewCleanReport(result)); err != nil {
				return err
			}
			if result.Refused {
				return fmt.Errorf("refused to delete protected path %q", args[0])
			}
			if !result.OK() {
				return fmt.Errorf("%d entries could not be removed", len(result.Errors))
			}
			return nil
		},
	}
}
