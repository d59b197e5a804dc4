//go:build !windows

package main

// RunAsService is a no-op outside Windows; the application runs in the
// foreground under whatever init system launched it.
func RunAsService() (bool, error) {
	return false, nil
}

// HandleServiceCommand is a no-op outside Windows.
func HandleServiceCommand(args []string) bool {
	return false
}
