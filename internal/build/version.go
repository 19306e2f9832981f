package build

// Set at link time with -ldflags "-X github.com/rohmanhakim/botlist-cache/internal/build.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

const Name = "botlist-cache"

// FullVersion returns "Version+Commit", e.g. "1.0.0+abc123".
func FullVersion() string {
	return Version + "+" + Commit
}

// UserAgent is the default User-Agent header, e.g. "botlist-cache/1.0.0".
func UserAgent() string {
	return Name + "/" + Version
}
