package build_test

import (
	"testing"

	"github.com/rohmanhakim/botlist-cache/internal/build"
	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, version, commit string) {
	t.Helper()
	prevVersion, prevCommit := build.Version, build.Commit
	build.Version, build.Commit = version, commit
	t.Cleanup(func() {
		build.Version, build.Commit = prevVersion, prevCommit
	})
}

func TestFullVersion(t *testing.T) {
	tests := []struct {
		version string
		commit  string
		want    string
	}{
		{"dev", "none", "dev+none"},
		{"1.0.0", "abc123", "1.0.0+abc123"},
		{"2.1.0-beta", "", "2.1.0-beta+"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			withVersion(t, tt.version, tt.commit)
			assert.Equal(t, tt.want, build.FullVersion())
		})
	}
}

func TestUserAgent(t *testing.T) {
	withVersion(t, "1.4.0", "abc123")
	assert.Equal(t, "botlist-cache/1.4.0", build.UserAgent())
}
