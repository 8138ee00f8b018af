package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/stupside/veil/internal/fingerprint"
	"github.com/stupside/veil/internal/loader"
	"github.com/stupside/veil/internal/timezone"
)

func TestHostPlatform(t *testing.T) {
	tests := []struct {
		goos, goarch, want string
	}{
		{"windows", "amd64", "Win32"},
		{"darwin", "arm64", "MacIntel"},
		{"android", "arm64", "Linux armv81"},
		{"linux", "arm64", "Linux aarch64"},
		{"linux", "amd64", "Linux x86_64"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hostPlatform(tt.goos, tt.goarch), tt.goos+"/"+tt.goarch)
	}
}

func TestHostLanguage(t *testing.T) {
	assert.Equal(t, "de-DE", hostLanguage("de_DE.UTF-8"))
	assert.Equal(t, "sr-RS", hostLanguage("sr_RS@latin"))
	assert.Equal(t, "en-US", hostLanguage("C.UTF-8"))
	assert.Equal(t, "en-US", hostLanguage(""))
}

func TestStoreFrom(t *testing.T) {
	root := &cli.Command{Metadata: map[string]any{}}
	_, err := storeFrom(root)
	assert.Error(t, err)

	root.Metadata["fingerprint"] = "nope"
	_, err = storeFrom(root)
	assert.Error(t, err)

	want := fingerprint.NewStore(loader.New(loader.WithArgs(nil), loader.WithDir("")), nil)
	root.Metadata["fingerprint"] = want
	got, err := storeFrom(root)
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestRootCommandTree(t *testing.T) {
	root := Root()
	var names []string
	for _, c := range root.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"show", "encode", "props", "noise", "timezone", "probe", "info"}, names)
}

func TestTimezoneCommandAppliesProfileZone(t *testing.T) {
	prev := time.Local
	t.Cleanup(func() { time.Local = prev })
	t.Setenv(timezone.EnvVar, os.Getenv(timezone.EnvVar))
	time.Local = time.UTC

	dir := t.TempDir()
	doc := `{"timezone":{"spoofing_enabled":true,"zone_id":"Asia/Tokyo"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, loader.FileName), []byte(doc), 0o644))

	args := []string{"veil", "--config", filepath.Join(dir, "missing.yaml"), "--profile-dir", dir, "timezone"}
	require.NoError(t, Root().Run(context.Background(), args))

	assert.Equal(t, "Asia/Tokyo", time.Local.String())
	assert.Equal(t, "Asia/Tokyo", os.Getenv(timezone.EnvVar))
}

func TestTimezoneCommandRejectsInvalidProfileZone(t *testing.T) {
	prev := time.Local
	t.Cleanup(func() { time.Local = prev })
	t.Setenv(timezone.EnvVar, os.Getenv(timezone.EnvVar))
	time.Local = time.UTC

	dir := t.TempDir()
	doc := `{"timezone":{"spoofing_enabled":true,"zone_id":"Not/AZone"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, loader.FileName), []byte(doc), 0o644))

	args := []string{"veil", "--config", filepath.Join(dir, "missing.yaml"), "--profile-dir", dir, "timezone"}
	err := Root().Run(context.Background(), args)
	require.ErrorIs(t, err, timezone.ErrInvalidZone)
	assert.Equal(t, "UTC", time.Local.String())
}
