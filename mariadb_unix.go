//go:build !windows

package mariadb

import (
	"github.com/ebitengine/purego"
)

// loadClientLibrary loads libmariadb on Unix-like systems
func loadClientLibrary(libPath string) (uintptr, error) {
	return purego.Dlopen(libPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}
