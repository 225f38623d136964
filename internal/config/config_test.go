package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, DriverMinio, cfg.Storage.Driver)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, "media:cleanup", cfg.Worker.Stream)
	assert.Equal(t, time.Hour, cfg.Worker.SweepMinAge)
}

func TestDecodeSplitsCORSOrigins(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("allowcorsorigins", "https://a.example,https://b.example")

	cfg, err := decode(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowCORSOrigins)
}

func TestDecodeRejectsUnknownDrivers(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("database.driver", "mysql")

	_, err := decode(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
}

func TestDecodeRequiresSecretInProduction(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("environment", "production")

	_, err := decode(v)
	require.Error(t, err)

	v.Set("security.jwtaccesssecret", "s3cret")
	_, err = decode(v)
	require.NoError(t, err)
}
