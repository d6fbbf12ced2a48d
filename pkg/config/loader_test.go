package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/config"
)

type serverConfig struct {
	Addr    string `env:"TEST_SERVER_ADDR" envDefault:":8080"`
	Workers int    `env:"TEST_SERVER_WORKERS" envDefault:"4"`
	Secret  string `env:"TEST_SERVER_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_SERVER_SECRET", "hunter2")
	t.Setenv("TEST_SERVER_WORKERS", "8")

	var cfg serverConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":8080", cfg.Addr, "default applies when unset")
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "hunter2", cfg.Secret)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg serverConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *serverConfig
	err := config.Load(cfg)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}
