package engine

// Severity ranks a verification finding.
type Severity string

const (
	// SeverityError blocks the release.
	SeverityError Severity = "error"

	// SeverityWarning is reported but does not block.
	SeverityWarning Severity = "warning"
)

// Check names a pre-flight verification.
type Check string

// Verification checks.
const (
	CheckDirtyTree Check = "dirty-tree"
	CheckBranch    Check = "branch"
	CheckUpstream  Check = "upstream"
	CheckTagExists Check = "tag-exists"
	CheckPublished Check = "published"
	CheckOwners    Check = "owners"
	CheckDowngrade Check = "downgrade"
	CheckRegistry  Check = "registry"
)

// Finding is the outcome of one failed verification.
type Finding struct {
	Check    Check    `json:"check"`
	Severity Severity `json:"severity"`

	// Package is empty for workspace-wide findings
	Package string `json:"package,omitempty"`

	Message string `json:"message"`
}
