package tokens

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/item-dedupe/internal/model"
)

func TestIsValid_Boundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"already expired", now.Add(-time.Minute), false},
		{"expires now", now, false},
		{"inside buffer", now.Add(4 * time.Minute), false},
		{"exactly five minutes", now.Add(5 * time.Minute), false},
		{"five minutes plus one ms", now.Add(5*time.Minute + time.Millisecond), true},
		{"an hour left", now.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred := &model.Credential{AccessToken: "at", ExpiresAt: tt.expires}
			assert.Equal(t, tt.want, IsValid(cred, now))
		})
	}
}

func TestIsValid_NilOrEmpty(t *testing.T) {
	now := time.Now()
	assert.False(t, IsValid(nil, now))
	assert.False(t, IsValid(&model.Credential{ExpiresAt: now.Add(time.Hour)}, now))
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "zoho_tokens.json"))

	cred, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoho_tokens.json")
	s := NewFileStore(path)

	expires := time.UnixMilli(1735689600123)
	require.NoError(t, s.Save(&model.Credential{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    expires,
		ClientID:     "cid",
		ClientSecret: "secret",
	}))

	got, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "at", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)
	assert.Equal(t, "cid", got.ClientID)
	assert.Equal(t, "secret", got.ClientSecret)
	assert.Equal(t, expires.UnixMilli(), got.ExpiresAt.UnixMilli())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_OnDiskFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoho_tokens.json")
	s := NewFileStore(path)

	require.NoError(t, s.Save(&model.Credential{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.UnixMilli(1700000000000),
		ClientID:     "cid",
		ClientSecret: "secret",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(1700000000000), raw["expires_at"])
	assert.Equal(t, "rt", raw["refresh_token"])
	assert.Equal(t, "cid", raw["client_id"])
}

func TestFileStore_SaveOverwritesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zoho_tokens.json")
	s := NewFileStore(path)

	require.NoError(t, s.Save(&model.Credential{AccessToken: "first", RefreshToken: "rt"}))
	require.NoError(t, s.Save(&model.Credential{AccessToken: "second", RefreshToken: "rt"}))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", got.AccessToken)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "zoho_tokens.json", entries[0].Name())
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoho_tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestFileStore_SaveNil(t *testing.T) {
	err := NewFileStore(filepath.Join(t.TempDir(), "t.json")).Save(nil)
	assert.Error(t, err)
}
