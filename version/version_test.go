package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	dev := Info{Version: "dev", CommitHash: "abcdef1234", BuildTime: "unknown"}
	assert.True(t, dev.IsDev())
	assert.Equal(t, "schemagen dev", dev.Generator())
	assert.Equal(t, "abcdef1", dev.Short())
	assert.Equal(t, "schemagen dev (commit abcdef1234, built unknown)", dev.String())

	rel := Info{Version: "1.4.0", CommitHash: "abc", BuildTime: "2026-01-02"}
	assert.False(t, rel.IsDev())
	assert.Equal(t, "schemagen 1.4.0", rel.Generator())
	assert.Equal(t, "abc", rel.Short())
	assert.Contains(t, rel.String(), "schemagen 1.4.0")
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
