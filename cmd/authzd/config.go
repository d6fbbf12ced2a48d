package main

import (
	"github.com/dmitrymomot/authzkit/pkg/httpserver"
)

// appConfig is the full environment surface of the decision service.
// Postgres settings are loaded separately because they are only
// required when the policy source is "postgres".
type appConfig struct {
	AppName string `env:"APP_NAME" envDefault:"authzd"`
	AppEnv  string `env:"APP_ENV" envDefault:"local"`

	HTTP httpserver.Config

	// PolicySource selects where principals, resources, and the
	// permission catalog come from: "file" or "postgres".
	PolicySource string `env:"POLICY_SOURCE" envDefault:"file"`
	PolicyFile   string `env:"POLICY_FILE" envDefault:"policy.yaml"`

	// RedisAddr enables the shared membership cache when set.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	AuditBufferSize int `env:"AUDIT_BUFFER_SIZE" envDefault:"1000"`
	AuditBatchSize  int `env:"AUDIT_BATCH_SIZE" envDefault:"100"`
}
