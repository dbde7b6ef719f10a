package pathsync

import (
	"strings"
)

// Args builds the rsync argument list for a plan.
//
//	-a                      :: archive mode (recursive, preserves metadata).
//	--delete                :: remove destination files absent from source.
//	--exclude=P             :: one per exclude pattern.
//	--link-dest=DIR         :: hard-link unchanged files from the previous backup.
//	--log-file=FILE         :: rsync writes its own transfer log here.
//	--log-file-format=      :: empty format suppresses per-file lines; when the
//	                           flag is absent rsync logs every transferred file.
//
// The source gets a trailing slash so its contents, not the directory
// itself, land in the destination.
func Args(p *Plan) []string {
	args := []string{"-a"}
	if p.DeleteExtraneous {
		args = append(args, "--delete")
	}
	for _, pattern := range p.ExcludePatterns {
		args = append(args, "--exclude="+pattern)
	}
	if p.LinkDestPath != "" {
		args = append(args, "--link-dest="+p.LinkDestPath)
	}
	if p.LogFilePath != "" {
		args = append(args, "--log-file="+p.LogFilePath)
		if p.SuppressPerFileLogging {
			args = append(args, "--log-file-format=")
		}
	}
	if p.DryRun {
		args = append(args, "--dry-run")
	}
	args = append(args, sourceArg(p.Source), p.Destination)
	return args
}

// CommandLine renders the full invocation for run logs and confirmation
// prompts.
func CommandLine(p *Plan) string {
	return p.RsyncPath + " " + strings.Join(Args(p), " ")
}

func sourceArg(source string) string {
	return strings.TrimRight(source, "/") + "/"
}
