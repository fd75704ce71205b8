package format

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// =================================
// File permissions defaults
// =================================
const (
	FilePerms = 0o644
	DirPerms  = 0o755
)

// =================================
// Extraction defaults
// =================================
const (
	DefaultSkipNonAudio = true
	DefaultBlockCache   = 16 // decoded blocks kept between entries
	DefaultJobs         = 1
)

// TagPolicy controls what happens when a block's GCM tag does not verify
type TagPolicy int

const (
	TagPermissive TagPolicy = iota // Default - log the mismatch and keep the plaintext
	TagStrict                      // Fail the block with ErrTagMismatch
)

func (p TagPolicy) String() string {
	switch p {
	case TagPermissive:
		return "permissive"
	case TagStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseTagPolicy parses a policy name; the empty string yields the default.
func ParseTagPolicy(s string) (TagPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "permissive", "relaxed":
		return TagPermissive, true
	case "strict":
		return TagStrict, true
	default:
		return TagPermissive, false
	}
}

// GetTagPolicy reads TIGER_TAG_POLICY, falling back to permissive
func GetTagPolicy(logger hclog.Logger) TagPolicy {
	val := os.Getenv("TIGER_TAG_POLICY")
	policy, ok := ParseTagPolicy(val)
	if !ok && logger != nil {
		logger.Warn("Unknown tag policy, using permissive", "value", val)
	}
	return policy
}

// Options configures how a package is opened and decoded
type Options struct {
	Logger     hclog.Logger
	Locator    *Locator  // shared directory listing, created on demand
	Codec      Codec     // required only when compressed blocks are read
	TagPolicy  TagPolicy // GCM tag handling
	BlockCache int       // decoded blocks kept in memory, <= 0 disables the cache
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
	if o.Locator == nil {
		o.Locator = NewLocator(o.Logger)
	}
	return o
}
