// Package planner assembles release plans.
//
// The planner turns a loaded workspace, a bump intent and per-package
// resolved settings into a deterministic ReleasePlan: the ordered steps an
// execution layer performs, the exact text edits for every file each step
// touches, and the actions (hook, commit, tag, publish, push) to run. The
// plan is a value; nothing in this package writes files or talks to git or
// a registry.
//
// Key responsibilities:
//   - Order packages so every step follows the steps it depends on
//   - Compute next versions and bring shared-version groups to one version
//   - Render replacement rules into pattern edits and version fields into range edits
//   - Rewrite dependents' requirements according to the dependent-version policy
//   - Collect per-package problems and block dependents of failed packages
package planner
