package flagparse

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulschiretz/pgl-mirror/pkg/buildinfo"
)

// cliFlags holds pointers to all possible command-line flags.
// Fields are pointers so we can distinguish between "not registered for this command" (nil)
// and "registered but not set by user" (non-nil pointer to zero value).
type cliFlags struct {
	// Global
	LogLevel *string
	DryRun   *bool

	// Shared: Backup / Init
	Source    *string
	Target    *string
	Host      *string
	FailFast  *bool
	RsyncPath *string

	RequireRoot       *bool
	RequireMountPoint *bool

	UserExcludeFiles *string
	UserExcludeDirs  *string
	PreBackupHooks   *string
	PostBackupHooks  *string

	LogPackEnabled *bool
	LogPackFormat  *string
	LogPackWorkers *int

	// Backup specific
	Confirm *bool

	// List specific
	Quarter *string

	// Init specific
	Force *bool
}

func registerGlobalFlags(fs *flag.FlagSet, f *cliFlags) {
	f.LogLevel = fs.String("log-level", "info", "Set the logging level: 'debug', 'info', 'warn', 'error'.")
	f.DryRun = fs.Bool("dry-run", false, "Show what would be done without making any changes.")
}

func registerBackupFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Target = fs.String("target", "", "Destination base directory for backups. Can also be given as the single positional argument. (Required)")
	f.Source = fs.String("source", "", "Source directory to mirror.")
	f.Host = fs.String("host", "", "Host identity used in the destination layout. Defaults to the hostname.")

	f.Confirm = fs.Bool("confirm", false, "Print the computed plan and ask for confirmation before syncing.")
	f.FailFast = fs.Bool("fail-fast", false, "Treat hook failures as fatal.")
	f.RsyncPath = fs.String("rsync-path", "", "Path to the rsync binary.")

	f.RequireRoot = fs.Bool("require-root", true, "Refuse to run without root privileges.")
	f.RequireMountPoint = fs.Bool("require-mount-point", false, "Refuse to run unless the target base is a mount point.")

	f.UserExcludeFiles = fs.String("user-exclude-files", "", "Comma-separated list of file patterns to exclude (supports glob patterns).")
	f.UserExcludeDirs = fs.String("user-exclude-dirs", "", "Comma-separated list of directory patterns to exclude (supports glob patterns).")
	f.PreBackupHooks = fs.String("pre-backup-hooks", "", "Comma-separated list of commands to run before the backup.")
	f.PostBackupHooks = fs.String("post-backup-hooks", "", "Comma-separated list of commands to run after the backup.")

	f.LogPackEnabled = fs.Bool("log-pack", true, "Compress run logs of completed quarters after a successful backup.")
	f.LogPackFormat = fs.String("log-pack-format", "", "Log pack format: 'gzip' or 'zstd'.")
	f.LogPackWorkers = fs.Int("log-pack-workers", 0, "Number of worker goroutines for log packing.")
}

func registerListFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Target = fs.String("target", "", "Destination base directory of the backups. Can also be given as the single positional argument. (Required)")
	f.Host = fs.String("host", "", "Host identity used in the destination layout. Defaults to the hostname.")
	f.Quarter = fs.String("quarter", "", "Quarter to list (e.g. '2024q1'), or 'all'. Defaults to the current quarter.")
}

func registerInitFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Target = fs.String("target", "", "Destination base directory for backups. Can also be given as the single positional argument. (Required)")
	f.Source = fs.String("source", "", "Source directory to mirror. (Required)")
	f.Host = fs.String("host", "", "Host identity used in the destination layout. Defaults to the hostname.")
	f.Force = fs.Bool("force", false, "Overwrite an existing configuration file.")

	f.RsyncPath = fs.String("rsync-path", "", "Path to the rsync binary.")
	f.RequireRoot = fs.Bool("require-root", true, "Refuse to run without root privileges.")
	f.RequireMountPoint = fs.Bool("require-mount-point", false, "Refuse to run unless the target base is a mount point.")
	f.UserExcludeFiles = fs.String("user-exclude-files", "", "Comma-separated list of file patterns to exclude (supports glob patterns).")
	f.UserExcludeDirs = fs.String("user-exclude-dirs", "", "Comma-separated list of directory patterns to exclude (supports glob patterns).")
	f.PreBackupHooks = fs.String("pre-backup-hooks", "", "Comma-separated list of commands to run before the backup.")
	f.PostBackupHooks = fs.String("post-backup-hooks", "", "Comma-separated list of commands to run after the backup.")
	f.LogPackEnabled = fs.Bool("log-pack", true, "Compress run logs of completed quarters after a successful backup.")
	f.LogPackFormat = fs.String("log-pack-format", "", "Log pack format: 'gzip' or 'zstd'.")
	f.LogPackWorkers = fs.Int("log-pack-workers", 0, "Number of worker goroutines for log packing.")
}

// Parse parses the provided arguments (usually os.Args[1:]) and returns the command and flag map.
func Parse(args []string) (Command, map[string]interface{}, error) {
	// If no arguments provided, print help and exit.
	if len(args) == 0 {
		fs := flag.NewFlagSet("main", flag.ContinueOnError)
		printTopLevelUsage(fs)
		return None, nil, nil
	}

	cmdStr := strings.ToLower(args[0])

	if cmdStr == "help" || cmdStr == "-h" || cmdStr == "-help" || cmdStr == "--help" {
		fs := flag.NewFlagSet("main", flag.ContinueOnError)
		printTopLevelUsage(fs)
		return None, nil, nil
	}

	f := &cliFlags{}

	command, err := ParseCommand(cmdStr)
	if err != nil {
		return None, nil, err
	}

	switch command {
	case Backup:
		fs := flag.NewFlagSet(command.String(), flag.ContinueOnError)
		registerGlobalFlags(fs, f)
		registerBackupFlags(fs, f)
		fs.Usage = func() {
			printSubcommandUsage(command, "Run the backup operation.", fs)
		}
		if err := fs.Parse(args[1:]); err != nil {
			return command, nil, err
		}
		flagMap, err := flagsToMap(fs, f)
		return command, flagMap, err

	case List:
		fs := flag.NewFlagSet(command.String(), flag.ContinueOnError)
		registerGlobalFlags(fs, f)
		registerListFlags(fs, f)
		fs.Usage = func() {
			printSubcommandUsage(command, "List the backups of a quarter, most recent first.", fs)
		}
		if err := fs.Parse(args[1:]); err != nil {
			return command, nil, err
		}
		flagMap, err := flagsToMap(fs, f)
		return command, flagMap, err

	case Init:
		fs := flag.NewFlagSet(command.String(), flag.ContinueOnError)
		registerGlobalFlags(fs, f)
		registerInitFlags(fs, f)
		fs.Usage = func() {
			printSubcommandUsage(command, "Initialize a new backup destination with a default configuration.", fs)
		}
		if err := fs.Parse(args[1:]); err != nil {
			return command, nil, err
		}
		flagMap, err := flagsToMap(fs, f)
		return command, flagMap, err

	case Version:
		return command, nil, nil

	default:
		return None, nil, fmt.Errorf("unknown command: %s", args[0])
	}
}

func flagsToMap(fs *flag.FlagSet, f *cliFlags) (map[string]interface{}, error) {
	// Create a map of the flags that were explicitly set by the user, along with their values.
	// This map is used to selectively override the base configuration.
	usedFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { usedFlags[f.Name] = true })

	flagMap := make(map[string]any)

	addIfUsed(flagMap, usedFlags, "log-level", f.LogLevel)
	addIfUsed(flagMap, usedFlags, "dry-run", f.DryRun)

	addIfUsed(flagMap, usedFlags, "target", f.Target)
	addIfUsed(flagMap, usedFlags, "source", f.Source)
	addIfUsed(flagMap, usedFlags, "host", f.Host)
	addIfUsed(flagMap, usedFlags, "confirm", f.Confirm)
	addIfUsed(flagMap, usedFlags, "fail-fast", f.FailFast)
	addIfUsed(flagMap, usedFlags, "rsync-path", f.RsyncPath)
	addIfUsed(flagMap, usedFlags, "require-root", f.RequireRoot)
	addIfUsed(flagMap, usedFlags, "require-mount-point", f.RequireMountPoint)
	addIfUsed(flagMap, usedFlags, "log-pack", f.LogPackEnabled)
	addIfUsed(flagMap, usedFlags, "log-pack-format", f.LogPackFormat)
	addIfUsed(flagMap, usedFlags, "log-pack-workers", f.LogPackWorkers)
	addIfUsed(flagMap, usedFlags, "quarter", f.Quarter)
	addIfUsed(flagMap, usedFlags, "force", f.Force)

	// Handle flags that require parsing/validation.
	addParsedIfUsed(flagMap, usedFlags, "user-exclude-files", f.UserExcludeFiles, ParseExcludeList)
	addParsedIfUsed(flagMap, usedFlags, "user-exclude-dirs", f.UserExcludeDirs, ParseExcludeList)
	addParsedIfUsed(flagMap, usedFlags, "pre-backup-hooks", f.PreBackupHooks, ParseCmdList)
	addParsedIfUsed(flagMap, usedFlags, "post-backup-hooks", f.PostBackupHooks, ParseCmdList)

	// The destination may be given as a single positional argument instead
	// of -target (classic invocation: `pgl-mirror backup /mnt/usb`).
	switch fs.NArg() {
	case 0:
	case 1:
		if _, ok := flagMap["target"]; ok {
			return nil, fmt.Errorf("destination given both as -target and as positional argument")
		}
		flagMap["target"] = fs.Arg(0)
	default:
		return nil, fmt.Errorf("too many positional arguments: %s", strings.Join(fs.Args(), " "))
	}

	return flagMap, nil
}

// addIfUsed adds the value of ptr to flagMap if ptr is not nil and the flag was set.
func addIfUsed[T any](flagMap map[string]interface{}, usedFlags map[string]bool, name string, ptr *T) {
	if ptr != nil && usedFlags[name] {
		flagMap[name] = *ptr
	}
}

// addParsedIfUsed adds the parsed value of ptr to flagMap if ptr is not nil and the flag was set.
func addParsedIfUsed(flagMap map[string]interface{}, usedFlags map[string]bool, name string, ptr *string, parser func(string) []string) {
	if ptr != nil && usedFlags[name] {
		flagMap[name] = parser(*ptr)
	}
}

// printTopLevelUsage prints the main help message.
func printTopLevelUsage(fs *flag.FlagSet) {
	execName := filepath.Base(os.Args[0])
	fmt.Fprintf(fs.Output(), "%s(%s) ", buildinfo.Name, buildinfo.Version)
	fmt.Fprintf(fs.Output(), "Quarterly hard-link mirror backups via rsync.\n\n")
	fmt.Fprintf(fs.Output(), "Usage: %s <command> [flags] [destination]\n\n", execName)
	fmt.Fprintf(fs.Output(), "Commands:\n")
	fmt.Fprintf(fs.Output(), "  backup      Run the backup operation\n")
	fmt.Fprintf(fs.Output(), "  list        List the backups of a quarter\n")
	fmt.Fprintf(fs.Output(), "  init        Initialize a new configuration\n")
	fmt.Fprintf(fs.Output(), "  version     Print the application version\n")
	fmt.Fprintf(fs.Output(), "\nRun '%s <command> -help' for more information on a command.\n", execName)
}

// printSubcommandUsage prints the help message for a specific subcommand.
func printSubcommandUsage(command Command, desc string, fs *flag.FlagSet) {
	execName := filepath.Base(os.Args[0])
	fmt.Fprintf(fs.Output(), "%s(%s) ", buildinfo.Name, buildinfo.Version)
	fmt.Fprintf(fs.Output(), "Quarterly hard-link mirror backups via rsync.\n\n")
	fmt.Fprintf(fs.Output(), "Usage of the %s command: %s %s [flags]\n\n", command, execName, command)
	fmt.Fprintf(fs.Output(), "%s\n\n", desc)
	fmt.Fprintf(fs.Output(), "Flags:\n")
	fs.PrintDefaults()
}

// ParseCmdList parses a comma-separated list of shell-like commands.
// It preserves quotes and handles backslash escapes so they can be interpreted by the shell.
func ParseCmdList(s string) []string {
	return parseListInternal(s, true, true)
}

// ParseExcludeList parses a comma-separated list of file or directory patterns.
// It removes quotes, as they are only used for grouping items with spaces.
// It treats backslashes as literal characters for Windows path compatibility.
func ParseExcludeList(s string) []string {
	return parseListInternal(s, false, false)
}

// parseListInternal is the core implementation for parsing a comma-separated list. It supports
// both single (') and double (") quotes to allow items to contain commas or spaces.
// - `keepQuotes`: Preserves quote characters in the output.
// - `handleEscapes`: Treats backslashes as escape characters.
func parseListInternal(s string, keepQuotes, handleEscapes bool) []string {
	var list []string
	var current strings.Builder
	var quoteChar rune

	// Helper to add the current buffered item to the list after trimming whitespace.
	appendItem := func() {
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			list = append(list, trimmed)
		}
		current.Reset()
	}

	var isEscaped bool
	for _, r := range s {
		if isEscaped {
			current.WriteRune(r)
			isEscaped = false
			continue
		}

		switch {
		case r == '\\' && handleEscapes:
			isEscaped = true
			// For commands, we also keep the backslash for the shell to interpret.
			current.WriteRune(r)
		case r == '\'' || r == '"':
			if quoteChar == 0 { // Start of a new quoted section.
				quoteChar = r
				if keepQuotes {
					current.WriteRune(r)
				}
			} else if quoteChar == r { // End of the current quoted section.
				quoteChar = 0
				if keepQuotes {
					current.WriteRune(r)
				}
			} else { // A different quote character inside an existing quoted section.
				current.WriteRune(r) // Treat it as a literal character.
			}
		case r == ',' && quoteChar == 0: // Comma outside of any quotes.
			appendItem()
		default:
			current.WriteRune(r)
		}
	}
	appendItem() // Add the final item after the loop finishes.
	return list
}
