//go:build windows

package preflight

// checkRootPrivilege is a no-op on Windows; rsync-based backups there run
// under whatever account invokes them.
func checkRootPrivilege() error {
	return nil
}

// platformValidateMountTarget performs no ghost-mount detection on Windows;
// a missing drive letter already fails the accessibility checks.
func platformValidateMountTarget(path string) error {
	return nil
}

// IsMountPoint is not supported on Windows; volumes are addressed by drive
// letter and the ghost-mount problem does not arise the same way.
func IsMountPoint(path string) (bool, error) {
	return true, nil
}
