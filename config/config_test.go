package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSOriginsNeverEmptyByDefault(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()
	origins := cfg.CORSOrigins()
	require.NotEmpty(t, origins)
	assert.Equal(t, []string{"http://localhost:3000"}, origins)
}

func TestCORSOriginsSplitsAndTrims(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com ,")

	cfg := Load()
	assert.Equal(t,
		[]string{"https://app.example.com", "https://admin.example.com"},
		cfg.CORSOrigins())
}

func TestESAddrsSplits(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDRS", "http://es1:9200,http://es2:9200")

	cfg := Load()
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ESAddrs())
}
