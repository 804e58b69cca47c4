package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJSON_AllFields(t *testing.T) {
	path := writeTempConfig(t, `{
		"app": {
			"token_sign_key": "jwt_secret",
			"token_issuer": "test_issuer",
			"token_duration": "2h",
			"version": "1.2.3"
		},
		"storage": {
			"driver": "sqlite",
			"db": {"dsn": "/var/lib/airsyncd/data.db"}
		},
		"server": {
			"http_address": "0.0.0.0:9090",
			"request_timeout": "45s"
		},
		"sync": {"state_retention": "240h"},
		"workers": {"spool_dir": "/var/spool/airsyncd", "prune_interval": "30m"}
	}`)

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "jwt_secret", cfg.App.TokenSignKey)
	assert.Equal(t, "test_issuer", cfg.App.TokenIssuer)
	assert.Equal(t, 2*time.Hour, cfg.App.TokenDuration)
	assert.Equal(t, "1.2.3", cfg.App.Version)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/airsyncd/data.db", cfg.Storage.DB.DSN)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.HTTPAddress)
	assert.Equal(t, 45*time.Second, cfg.Server.RequestTimeout)

	assert.Equal(t, 240*time.Hour, cfg.Sync.StateRetention)

	assert.Equal(t, "/var/spool/airsyncd", cfg.Workers.SpoolDir)
	assert.Equal(t, 30*time.Minute, cfg.Workers.PruneInterval)

	// The file path never propagates out of the JSON source itself.
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseJSON_MissingFile(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestParseJSON_MalformedJSON(t *testing.T) {
	path := writeTempConfig(t, `{"app": `)

	_, err := parseJSON(path)
	assert.Error(t, err)
}

// A typo in a key name must fail schema validation instead of silently
// falling back to defaults.
func TestParseJSON_UnknownKeyFailsSchema(t *testing.T) {
	path := writeTempConfig(t, `{"app": {"token_sing_key": "oops"}}`)

	_, err := parseJSON(path)
	assert.Error(t, err)
}

func TestParseJSON_UnknownDriverFailsSchema(t *testing.T) {
	path := writeTempConfig(t, `{"storage": {"driver": "oracle"}}`)

	_, err := parseJSON(path)
	assert.Error(t, err)
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{name: "String", raw: `"1h30m"`, want: 90 * time.Minute},
		{name: "Number", raw: `1000000000`, want: time.Second},
		{name: "Garbage", raw: `"eleventy"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.raw), &d)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	encoded, err := json.Marshal(Duration(90 * time.Minute))
	require.NoError(t, err)
	assert.JSONEq(t, `"1h30m0s"`, string(encoded))
}
