package caller

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToolVersion(t *testing.T) {
	tests := []struct {
		out  string
		want string
	}{
		{out: "version:  v1.3.6", want: "1.3.6"},
		{out: "freebayes 1.1.0-dirty", want: "1.1.0"},
		{out: "v1.3.6-18-g2ef2b4d\n", want: "1.3.6"},
		{out: "freebayes version 0.9.21,", want: "0.9.21"},
		{out: "no digits here", want: ""},
		{out: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseToolVersion(tt.out), "input %q", tt.out)
	}
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, -1, CompareVersions("1.0.2", "1.1.0"))
	assert.Equal(t, 1, CompareVersions("1.3.6", "1.1.0"))
	assert.Equal(t, 0, CompareVersions("1.1.0", "1.1.0"))
	assert.Equal(t, 0, CompareVersions("1.1", "1.1.0"))
	assert.Equal(t, 1, CompareVersions("1.1.0.1", "1.1.0"))
}

// versionRunner answers `freebayes --version` with a fixed banner.
type versionRunner struct {
	banner string
	err    error
}

func (r versionRunner) Run(ctx context.Context, name string, args ...string) error {
	return nil
}

func (r versionRunner) RunToFile(ctx context.Context, outPath, name string, args ...string) error {
	return nil
}

func (r versionRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.banner), nil
}

func TestCheckFreebayesVersion(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, CheckFreebayesVersion(ctx, versionRunner{banner: "version:  v1.3.6"}))

	err := CheckFreebayesVersion(ctx, versionRunner{banner: "version:  v0.9.21"})
	assert.ErrorContains(t, err, "too old")

	err = CheckFreebayesVersion(ctx, versionRunner{banner: "mystery output"})
	assert.ErrorContains(t, err, "cannot parse")

	err = CheckFreebayesVersion(ctx, versionRunner{err: errors.New("executable file not found")})
	assert.ErrorContains(t, err, "version check")
}
