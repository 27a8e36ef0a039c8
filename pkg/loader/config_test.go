package loader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/tracefit/pkg/loader"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		cfg     loader.Config
		wantErr string
	}{
		"defaults": {},
		"custom expressions": {
			cfg: loader.Config{
				Match:  `pathExt(file) == ".csv"`,
				Reload: `op.has(fs.WRITE)`,
			},
		},
		"bad match": {
			cfg:     loader.Config{Match: `file ==`},
			wantErr: "file match",
		},
		"bad reload": {
			cfg:     loader.Config{Reload: `nope(op)`},
			wantErr: "event match",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.cfg.Validate()
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestConfig_EnsureDefaults(t *testing.T) {
	t.Parallel()

	cfg := loader.NewConfig()
	require.NotNil(t, cfg.Watch)
	assert.False(t, *cfg.Watch)
	assert.Len(t, cfg.Opts(), 3)
}
