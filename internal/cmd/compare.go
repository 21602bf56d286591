package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/pluginupdater/internal/output"
	"github.com/adamancini/pluginupdater/internal/update"
)

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <current> <candidate>",
		Short: "Compare two plugin versions",
		Long: `Compare prints 1 when candidate is newer than current, -1 when it is older
and 0 when they are equal. Versions are major.minor.patch with an optional
-beta<N> suffix or fourth build segment.

Examples:
  pluginupdater compare 1.2.3 1.2.4          # 1
  pluginupdater compare 1.0.0-beta3 1.0.0-beta2  # -1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, candidate := args[0], args[1]
			result, err := update.CompareVersions(strings.ToLower(current), strings.ToLower(candidate))
			if err != nil {
				return err
			}
			return writeOutput(cmd, output.CompareReport{
				Current:   current,
				Candidate: candidate,
				Result:    result,
			})
		},
	}
}
