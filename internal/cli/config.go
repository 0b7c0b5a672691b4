package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/engine"
)

var (
	configPackage  string
	configExplain  bool
	configFile     string
	configIsolated bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved settings of a package",
	Long: `Print the settings in effect for a package as YAML, after merging the command
line, settings files, manifests and built-in defaults. With --explain every
setting is listed with the source that defined it.`,
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

		req := &engine.ConfigRequest{
			CWD:     cwd,
			Package: configPackage,
			Config: engine.ConfigOptions{
				ConfigFile: configFile,
				Isolated:   configIsolated,
			},
		}

		result, err := eng.Config(ctx, req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, result)
		}

		if configExplain {
			PrintSection(out, "Package "+result.Package)
			for _, layer := range result.Layers {
				PrintLabelValue(out, layer.Kind, layer.Name)
			}

			PrintSection(out, "Settings")
			rows := make([][]string, 0, len(config.Keys()))
			for _, key := range config.Keys() {
				rows = append(rows, []string{key, result.Config.Provenance[key]})
			}
			PrintTable(out, []string{"KEY", "SOURCE"}, rows)
			_, _ = fmt.Fprintln(out)
		}

		data, err := config.Marshal(result.Config)
		if err != nil {
			return fmt.Errorf("failed to render settings: %w", err)
		}
		_, _ = out.Write(data)
		return nil
	},
}

func init() {
	configCmd.Flags().StringVarP(&configPackage, "package", "p", "", "Package to inspect (default: the package in the current directory)")
	configCmd.Flags().BoolVar(&configExplain, "explain", false, "Show where each setting comes from")
	configCmd.Flags().StringVarP(&configFile, "config", "c", "", "Additional settings file")
	configCmd.Flags().BoolVar(&configIsolated, "isolated", false, "Ignore implicit settings files")
}
