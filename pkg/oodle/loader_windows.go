//go:build windows && (amd64 || arm64)

package oodle

import (
	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

// DefaultLibraryName is the Oodle core DLL shipped with the game
var DefaultLibraryName = "oo2core_9_win64.dll"

func bind(path string, fn *decompressFunc) (func() error, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, err
	}

	proc, err := dll.FindProc(SymbolName)
	if err != nil {
		dll.Release()
		return nil, err
	}

	purego.RegisterFunc(fn, proc.Addr())
	return dll.Release, nil
}
