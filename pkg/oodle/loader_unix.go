//go:build darwin || freebsd || (linux && (amd64 || arm64))

package oodle

import (
	"runtime"

	"github.com/ebitengine/purego"
)

// DefaultLibraryName is the Oodle core library looked up by the dynamic loader
var DefaultLibraryName = func() string {
	if runtime.GOOS == "darwin" {
		return "liboo2coremac64.2.9.dylib"
	}
	return "liboo2corelinux64.so.9"
}()

func bind(path string, fn *decompressFunc) (func() error, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, err
	}

	sym, err := purego.Dlsym(handle, SymbolName)
	if err != nil {
		purego.Dlclose(handle)
		return nil, err
	}

	purego.RegisterFunc(fn, sym)
	return func() error { return purego.Dlclose(handle) }, nil
}
