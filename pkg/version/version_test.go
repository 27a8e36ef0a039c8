package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/tracefit/pkg/version"
)

func TestInfo(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		info      version.Info
		wantShort string
		wantLong  string
	}{
		"release": {
			info: version.Info{
				Version:   "v1.2.0",
				Revision:  "abc1234",
				Date:      "2025-01-02T03:04:05Z",
				GoVersion: "go1.25.0",
				Platform:  "linux/amd64",
			},
			wantShort: "v1.2.0",
			wantLong:  "v1.2.0 (abc1234, 2025-01-02T03:04:05Z, go1.25.0, linux/amd64)",
		},
		"development": {
			info: version.Info{
				Revision:  "abc1234",
				GoVersion: "go1.25.0",
				Platform:  "darwin/arm64",
			},
			wantShort: "abc1234",
			wantLong:  "abc1234 (abc1234, go1.25.0, darwin/arm64)",
		},
		"dirty": {
			info: version.Info{
				Revision:  "abc1234",
				GoVersion: "go1.25.0",
				Platform:  "linux/arm64",
				Dirty:     true,
			},
			wantShort: "abc1234-dirty",
			wantLong:  "abc1234-dirty (abc1234-dirty, go1.25.0, linux/arm64)",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.wantShort, tc.info.Short())
			assert.Equal(t, tc.wantLong, tc.info.String())
		})
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	info := version.Get()
	assert.NotEmpty(t, info.Revision)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
	assert.Equal(t, info.Short(), version.GetVersion())
}
