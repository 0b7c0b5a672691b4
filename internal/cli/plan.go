package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/engine"
	"github.com/danieljhkim/monorel/internal/planner"
)

var (
	planPackages    []string
	planWorkspace   bool
	planExclude     []string
	planMetadata    string
	planPrevTagName string
	planForce       bool
	planConfigFile  string
	planIsolated    bool
	planNoConfirm   bool
	planAllowDirty  bool
	planNoPublish   bool
	planNoTag       bool
	planNoPush      bool
	planSign        bool
)

var planCmd = &cobra.Command{
	Use:   "plan [LEVEL|VERSION]",
	Short: "Plan a release",
	Long: `Compute the release plan for the selected packages without changing anything.

LEVEL is one of major, minor, patch, release, alpha, beta or rc; a literal
version such as 2.0.0 releases every selected package at that version.
Without a level the current versions are released as they are.

Packages without changes since their last release are skipped unless they are
named with --package or --force is given. On a terminal you are asked whether
to release them anyway.`,
	Args: cobra.MaximumNArgs(1),
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

		intent := "release"
		if len(args) == 1 {
			intent = args[0]
		}

		req := &engine.PlanRequest{
			CWD:    cwd,
			Intent: intent,
			Selection: engine.Selection{
				Packages:  planPackages,
				Workspace: planWorkspace,
				Exclude:   planExclude,
			},
			Config: engine.ConfigOptions{
				ConfigFile: planConfigFile,
				Isolated:   planIsolated,
				Overrides:  planOverrides(cmd),
			},
			Metadata:    planMetadata,
			PrevTagName: planPrevTagName,
			Force:       planForce,
			AllowDirty:  planAllowDirty,
		}

		result, planErr := eng.Plan(ctx, req)
		if result == nil {
			return planErr
		}

		// Offer to release unchanged packages
		if planErr == nil && !planNoConfirm && !planForce && !jsonOutput && interactiveFunc() {
			if unchanged := unchangedSteps(result.Plan); len(unchanged) > 0 {
				details := make([]string, 0, len(unchanged))
				for _, step := range unchanged {
					details = append(details, fmt.Sprintf("%s: %s", step.Package, step.SkipReason))
				}
				question := fmt.Sprintf("%s unchanged. Release anyway?", PrintCount(len(unchanged), "package is", "packages are"))
				ok, err := confirmFunc(question, details)
				if err != nil {
					return err
				}
				if ok {
					for _, step := range unchanged {
						req.Forced = append(req.Forced, step.Package)
					}
					result, planErr = eng.Plan(ctx, req)
					if result == nil {
						return planErr
					}
				}
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if err := outputJSON(out, result); err != nil {
				return err
			}
		} else {
			_, _ = fmt.Fprint(out, renderPlan(result, verbose))
		}

		if planErr != nil {
			return planErr
		}
		if blocking := result.Blocking(); len(blocking) > 0 {
			return fmt.Errorf("%w: %s", engine.ErrVerification, PrintCount(len(blocking), "blocking finding", "blocking findings"))
		}

		if !jsonOutput {
			releasing := len(result.Plan.Releasing())
			if releasing == 0 {
				PrintEmptyState(out, "nothing to release")
			} else {
				PrintSuccess(out, fmt.Sprintf("plan ready: %s", PrintCount(releasing, "package", "packages")))
			}
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringSliceVarP(&planPackages, "package", "p", nil, "Package to release (repeatable)")
	planCmd.Flags().BoolVar(&planWorkspace, "workspace", false, "Release every workspace member")
	planCmd.Flags().StringSliceVar(&planExclude, "exclude", nil, "Package to leave out (repeatable)")
	planCmd.Flags().StringVarP(&planMetadata, "metadata", "m", "", "Build metadata for the new versions")
	planCmd.Flags().StringVar(&planPrevTagName, "prev-tag-name", "", "Tag to detect changes from instead of each package's last release")
	planCmd.Flags().BoolVar(&planForce, "force", false, "Release packages even when unchanged")
	planCmd.Flags().StringVarP(&planConfigFile, "config", "c", "", "Additional settings file")
	planCmd.Flags().BoolVar(&planIsolated, "isolated", false, "Ignore implicit settings files")
	planCmd.Flags().BoolVar(&planNoConfirm, "no-confirm", false, "Do not ask about unchanged packages")
	planCmd.Flags().BoolVar(&planAllowDirty, "allow-dirty", false, "Report uncommitted changes as a warning")
	planCmd.Flags().BoolVar(&planNoPublish, "no-publish", false, "Do not publish")
	planCmd.Flags().BoolVar(&planNoTag, "no-tag", false, "Do not tag")
	planCmd.Flags().BoolVar(&planNoPush, "no-push", false, "Do not push")
	planCmd.Flags().BoolVar(&planSign, "sign", false, "Sign commits and tags")
}

// planOverrides turns the setting flags given on the command line into the
// highest precedence settings layer. Flags not given leave settings undefined.
func planOverrides(cmd *cobra.Command) *config.Settings {
	var s config.Settings
	set := false
	flags := cmd.Flags()

	negated := func(name string, value bool, target **bool) {
		if flags.Changed(name) {
			v := !value
			*target = &v
			set = true
		}
	}
	negated("no-publish", planNoPublish, &s.Publish)
	negated("no-tag", planNoTag, &s.Tag)
	negated("no-push", planNoPush, &s.Push)

	if flags.Changed("sign") {
		sign := planSign
		s.SignCommit = &sign
		s.SignTag = &sign
		set = true
	}

	if !set {
		return nil
	}
	return &s
}

// unchangedSteps returns the steps skipped only because nothing changed.
func unchangedSteps(plan *planner.ReleasePlan) []*planner.ReleaseStep {
	var out []*planner.ReleaseStep
	for _, step := range plan.Skipped() {
		if step.Change != nil && !step.Change.Changed {
			out = append(out, step)
		}
	}
	return out
}
