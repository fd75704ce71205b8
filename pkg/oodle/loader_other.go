//go:build !(darwin || freebsd || (linux && (amd64 || arm64)) || (windows && (amd64 || arm64)))

package oodle

import (
	"fmt"
	"runtime"
)

var DefaultLibraryName = ""

func bind(string, *decompressFunc) (func() error, error) {
	return nil, fmt.Errorf("native calls are not supported on %s/%s", runtime.GOOS, runtime.GOARCH)
}
