package hook

type Plan struct {
	Enabled bool

	PreBackupCommands  []string
	PostBackupCommands []string

	// Global Flags
	DryRun   bool
	FailFast bool
}
