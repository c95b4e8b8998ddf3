package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"5000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
}

type DBEnv struct {
	Path string `envconfig:"DB_PATH" default:".taskdeck/taskdeck.db"`
}

type AuthEnv struct {
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"1h"`
}

type ScannerEnv struct {
	Period      time.Duration `envconfig:"SCANNER_PERIOD" default:"1m"`
	DueWindow   time.Duration `envconfig:"SCANNER_DUE_WINDOW" default:"48h"`
	DedupWindow time.Duration `envconfig:"SCANNER_DEDUP_WINDOW" default:"24h"`
	BatchSize   int           `envconfig:"SCANNER_BATCH_SIZE" default:"100"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"mailto:admin@taskdeck.local"`
}

type Env struct {
	BaseEnv
	DBEnv
	AuthEnv
	ScannerEnv
	VAPIDEnv
}

const namespace = "TASKDECK"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

// LoadScannerEnv fills just the scanner settings, for tooling that runs a
// scan without the rest of the server configuration.
func LoadScannerEnv(env *ScannerEnv) error {
	if err := envconfig.Process(namespace, env); err != nil {
		return fmt.Errorf("failed to load scanner env: %w", err)
	}
	return nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}
