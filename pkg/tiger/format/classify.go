package format

import (
	"fmt"
	"path"
	"strings"

	farm "github.com/dgryski/go-farm"
)

// Output names where an extracted entry goes, relative to the output root
type Output struct {
	Extension string
	Subdir    string
	Name      string
}

// RelPath is {subdir}/{name}.{ext} with forward slashes
func (o Output) RelPath() string {
	return path.Join(o.Subdir, o.Name+"."+o.Extension)
}

// Hasher names entries that have no natural name
type Hasher func(key string) string

// HashName is the default Hasher: FarmHash fingerprint as 16 hex digits
func HashName(key string) string {
	return fmt.Sprintf("%016x", farm.Fingerprint64([]byte(key)))
}

// EntryKey is "{packageID}-{index:04x}", used for bank names and hashes
func EntryKey(packageID string, index int) string {
	return fmt.Sprintf("%s-%04x", packageID, index)
}

// Classify decides extension, directory and file name for entry index.
func Classify(packageID string, index int, e Entry, hash Hasher) Output {
	if hash == nil {
		hash = HashName
	}

	ref := strings.ToUpper(e.Reference)
	switch {
	case e.Type == TypeAudio && e.Subtype == SubtypeAudioWem:
		return Output{Extension: "wem", Subdir: "wem", Name: ref}
	case e.Type == TypeAudio && e.Subtype == SubtypeAudioBank:
		return Output{Extension: "bnk", Subdir: "bnk", Name: EntryKey(packageID, index)}
	default:
		return Output{Extension: "bin", Subdir: path.Join("unknown", ref), Name: hash(EntryKey(packageID, index))}
	}
}
