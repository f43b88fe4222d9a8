package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TABLE_NAME", "resources")
	t.Setenv("MISSING_ATTRIBUTE", "OwnerId")
	t.Setenv("TARGET_ATTRIBUTE", "")
	t.Setenv("KEY_ATTRIBUTES", "pk, sk")
	t.Setenv("SOURCE_ATTRIBUTE", "")
	t.Setenv("FIRST_PAGE_LIMIT", "")
	t.Setenv("PAGE_LIMIT", "")
	t.Setenv("UPDATE_CONCURRENCY", "")
	t.Setenv("CONSISTENT_READ", "")
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AWS_ENDPOINT", "http://localhost:8000")
	t.Setenv("SQL_DSN", "sqlserver://sa:pw@localhost:1433?database=backfill")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "resources", cfg.Table)
	assert.Equal(t, "OwnerId", cfg.MissingAttribute)
	assert.Equal(t, "OwnerId", cfg.TargetAttribute)
	assert.Equal(t, []string{"pk", "sk"}, cfg.KeyAttributes)
	assert.Equal(t, "arn", cfg.SourceAttribute)
	assert.Equal(t, int32(50), cfg.FirstPageLimit)
	assert.Equal(t, int32(100), cfg.PageLimit)
	assert.Equal(t, 1, cfg.UpdateConcurrency)
	assert.Equal(t, "http://localhost:8000", cfg.AWS.Endpoint)
	assert.Equal(t, "sqlserver://sa:pw@localhost:1433?database=backfill", cfg.Ledger.DSN)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TARGET_ATTRIBUTE", "AccountId")
	t.Setenv("SOURCE_ATTRIBUTE", "ResourceArn")
	t.Setenv("UPDATE_CONCURRENCY", "8")
	t.Setenv("CONSISTENT_READ", "TRUE")
	t.Setenv("LOG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "AccountId", cfg.TargetAttribute)
	assert.Equal(t, "ResourceArn", cfg.SourceAttribute)
	assert.Equal(t, 8, cfg.UpdateConcurrency)
	assert.True(t, cfg.ConsistentRead)
	assert.Equal(t, "", cfg.Logging.File)
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TABLE_NAME", "")
	t.Setenv("KEY_ATTRIBUTES", "")
	t.Setenv("MISSING_ATTRIBUTE", "")

	path := filepath.Join(t.TempDir(), "backfill.yaml")
	content := `
table: from-file
missing_attribute: OwnerId
key_attributes: [id]
page_limit: 200
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PAGE_LIMIT", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Table)
	assert.Equal(t, []string{"id"}, cfg.KeyAttributes)
	assert.Equal(t, int32(250), cfg.PageLimit)
	assert.Equal(t, int32(50), cfg.FirstPageLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing table", env: map[string]string{"TABLE_NAME": ""}},
		{name: "missing keys", env: map[string]string{"KEY_ATTRIBUTES": ""}},
		{name: "too many keys", env: map[string]string{"KEY_ATTRIBUTES": "a,b,c"}},
		{name: "duplicate keys", env: map[string]string{"KEY_ATTRIBUTES": "pk,pk"}},
		{name: "target in key", env: map[string]string{"TARGET_ATTRIBUTE": "sk"}},
		{name: "source is target", env: map[string]string{"SOURCE_ATTRIBUTE": "OwnerId"}},
		{name: "bad page limit", env: map[string]string{"PAGE_LIMIT": "many"}},
		{name: "zero page limit", env: map[string]string{"PAGE_LIMIT": "0"}},
		{name: "bad concurrency", env: map[string]string{"UPDATE_CONCURRENCY": "x"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "missing file", env: map[string]string{"CONFIG_FILE": "/nonexistent/backfill.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
