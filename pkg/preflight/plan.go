package preflight

type Plan struct {
	SourceAccessible  bool
	TargetAccessible  bool
	RequireRoot       bool
	RequireMountPoint bool

	// Global Flags
	DryRun   bool
	FailFast bool
}
