//go:build windows

package mariadb

import (
	"syscall"
)

// loadClientLibrary loads libmariadb on Windows
func loadClientLibrary(libPath string) (uintptr, error) {
	handle, err := syscall.LoadLibrary(libPath)
	if err != nil {
		return 0, err
	}
	return uintptr(handle), nil
}
