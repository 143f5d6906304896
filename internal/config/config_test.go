package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "BASE_URL", "REGION", "LANGUAGE",
		"ITEM_LIST_PATH", "ITEM_NAME", "MERCHANT", "PORT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "https://api.arsha.io/v2", cfg.BaseURL)
	assert.Equal(t, "na", cfg.Region)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, "item_list.json", cfg.ItemListPath)
	assert.Equal(t, "all", cfg.ItemName)
	assert.False(t, cfg.Merchant)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BASE_URL", "http://upstream.test/v2")
	t.Setenv("REGION", "eu")
	t.Setenv("ITEM_NAME", "accessory")
	t.Setenv("MERCHANT", "true")
	t.Setenv("PORT", "9090")

	cfg := Load()
	assert.Equal(t, "http://upstream.test/v2", cfg.BaseURL)
	assert.Equal(t, "eu", cfg.Region)
	assert.Equal(t, "accessory", cfg.ItemName)
	assert.True(t, cfg.Merchant)
	assert.Equal(t, "9090", cfg.Port)
}
