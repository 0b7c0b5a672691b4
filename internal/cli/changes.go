package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/monorel/internal/engine"
)

var (
	changesPackages    []string
	changesWorkspace   bool
	changesExclude     []string
	changesPrevTagName string
	changesConfigFile  string
	changesIsolated    bool
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show changes since each package's last release",
	Long: `List, per selected package, the last release tag, whether the package changed
since then and why. Use --verbose to list the changed files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := engineFactory()
		if err != nil {
			return err
		}

		ctx := context.Background()
		cwd, err := getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}

		req := &engine.ChangesRequest{
			CWD: cwd,
			Selection: engine.Selection{
				Packages:  changesPackages,
				Workspace: changesWorkspace,
				Exclude:   changesExclude,
			},
			Config: engine.ConfigOptions{
				ConfigFile: changesConfigFile,
				Isolated:   changesIsolated,
			},
			PrevTagName: changesPrevTagName,
		}

		result, err := eng.Changes(ctx, req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, result)
		}
		if len(result.Packages) == 0 {
			PrintEmptyState(out, "no packages selected")
			return nil
		}
		_, _ = fmt.Fprint(out, renderChanges(result, verbose))
		return nil
	},
}

func init() {
	changesCmd.Flags().StringSliceVarP(&changesPackages, "package", "p", nil, "Package to inspect (repeatable)")
	changesCmd.Flags().BoolVar(&changesWorkspace, "workspace", false, "Inspect every workspace member")
	changesCmd.Flags().StringSliceVar(&changesExclude, "exclude", nil, "Package to leave out (repeatable)")
	changesCmd.Flags().StringVar(&changesPrevTagName, "prev-tag-name", "", "Tag to compare against instead of each package's last release")
	changesCmd.Flags().StringVarP(&changesConfigFile, "config", "c", "", "Additional settings file")
	changesCmd.Flags().BoolVar(&changesIsolated, "isolated", false, "Ignore implicit settings files")
}
