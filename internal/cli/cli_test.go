package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/overlap/internal/model"
	"github.com/ppiankov/overlap/internal/pipeline"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix("OVERLAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	require.NoError(t, registerDefaults(v, model.DefaultConfig()))
	return v
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"claims", "claims"},
		{"day 3 input", "day-3-input"},
		{"a/b\\c:d", "a_b_c_d"},
		{"what?<>|*\"", "what______"},
		{"..", "report"},
		{"   ", "report"},
		{strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), "sanitizeFilename(%q)", tt.in)
	}
}

func TestUniqueSlug(t *testing.T) {
	seen := make(map[string]int)

	assert.Equal(t, "claims", uniqueSlug(seen, "claims"))
	assert.Equal(t, "claims-2", uniqueSlug(seen, "claims"))
	assert.Equal(t, "claims-3", uniqueSlug(seen, "claims"))
	assert.Equal(t, "other", uniqueSlug(seen, "other"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(t))
	require.NoError(t, err)

	want := model.DefaultConfig()
	assert.Equal(t, want.Fabric, cfg.Fabric)
	assert.Equal(t, want.HTTP, cfg.HTTP)
	assert.Equal(t, want.RateLimiting, cfg.RateLimiting)
	assert.Equal(t, want.Cache.MemoryTTL, cfg.Cache.MemoryTTL)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("OVERLAP_FABRIC_WORKERS", "4")
	t.Setenv("OVERLAP_HTTP_TIMEOUT", "5s")
	t.Setenv("OVERLAP_PARSE_SKIP_INVALID", "true")
	t.Setenv("OVERLAP_HTTP_NO_PROXY", "internal.example.com")

	cfg, err := loadConfig(newTestViper(t))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Fabric.Workers)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.True(t, cfg.Parse.SkipInvalid)
	assert.Equal(t, "internal.example.com", cfg.HTTP.NoProxy)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "fabric:\n  max_width: 1000\n  max_height: 1000\n  max_cells: 5000\n" +
		"rate_limiting:\n  requests_per_second: 0.5\n  hosts:\n" +
		"    - host: claims.example.com\n      requests_per_second: 0.1\n      burst_size: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v := newTestViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Fabric.MaxWidth)
	assert.Equal(t, 1000, cfg.Fabric.MaxHeight)
	assert.Equal(t, 5000, cfg.Fabric.MaxCells)
	assert.Equal(t, 0.5, cfg.RateLimiting.RequestsPerSecond)
	assert.Equal(t, []model.HostRate{{Host: "claims.example.com", RequestsPerSecond: 0.1, BurstSize: 1}}, cfg.RateLimiting.Hosts)
	assert.Equal(t, model.DefaultConfig().Fabric.MaxGridCells, cfg.Fabric.MaxGridCells)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".overlap", "config.yaml")

	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Overlap Configuration File"))
	assert.Contains(t, string(data), "max_grid_cells: 250000")

	// The written file must round-trip through viper
	v := newTestViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig().HTTP.Timeout, cfg.HTTP.Timeout)

	err = writeDefaultConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestWriteConfigSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeConfigSummary(&buf, model.DefaultConfig()))

	out := buf.String()
	assert.Contains(t, out, "Current Configuration")
	assert.Contains(t, out, "skip_invalid: false")
	assert.Contains(t, out, "OVERLAP_*")
}

func analyze(t *testing.T, input string) *pipeline.AnalysisResult {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false

	result, err := pipeline.NewPipeline(cfg, nil).Analyze(context.Background(), []byte(input))
	require.NoError(t, err)
	require.NotNil(t, result.Fabric)
	return result
}

func TestWriteGridDiff(t *testing.T) {
	before := analyze(t, "#1 @ 1,3: 4x4\n#2 @ 3,1: 4x4\n#3 @ 5,5: 2x2\n")
	after := analyze(t, "#1 @ 1,3: 4x4\n#2 @ 3,1: 4x4\n#3 @ 4,5: 2x2\n")

	var buf bytes.Buffer
	require.NoError(t, writeGridDiff(&buf, "before.txt", "after.txt", before, after, 3, 0))

	out := buf.String()
	assert.Contains(t, out, "--- before.txt")
	assert.Contains(t, out, "+++ after.txt")
	assert.Contains(t, out, "-oooooo\n")
	assert.Contains(t, out, "+oooXo.\n")
	assert.Contains(t, out, "Overlapping squares: 4 -> 6 (+2)")
	assert.Contains(t, out, "Intact claims:       1 -> 0")
}

func TestWriteGridDiff_Identical(t *testing.T) {
	input := "#1 @ 0,0: 2x2\n#2 @ 1,1: 2x2\n"

	var buf bytes.Buffer
	require.NoError(t, writeGridDiff(&buf, "a", "b", analyze(t, input), analyze(t, input), 3, 0))

	assert.Contains(t, buf.String(), "Grids are identical")
	assert.Contains(t, buf.String(), "Overlapping squares: 1 -> 1 (+0)")
}

func TestWriteGridDiff_TooLarge(t *testing.T) {
	a := analyze(t, "#1 @ 0,0: 100x100\n")
	b := analyze(t, "#1 @ 0,0: 1x1\n")

	var buf bytes.Buffer
	err := writeGridDiff(&buf, "a", "b", a, b, 3, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	assert.Equal(t, "overlap "+Version+"\n", buf.String())
}
