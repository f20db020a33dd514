package config

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/DoyleJ11/wordbattle-backend/internal/engine"
)

const (
	PortEnv           = "PORT"
	DatabaseDriverEnv = "DATABASE_DRIVER"
	DatabaseUrlEnv    = "DATABASE_URL"
	LogLevelEnv       = "LOG_LEVEL"
	LogFormatEnv      = "LOG_FORMAT"
	SeedLevelsEnv     = "SEED_LEVELS"

	BattleDurationEnv      = "BATTLE_DURATION"
	CountdownDurationEnv   = "COUNTDOWN_DURATION"
	ReconnectGraceEnv      = "RECONNECT_GRACE"
	ReadyTimeoutEnv        = "READY_TIMEOUT"
	MinSubmitIntervalEnv   = "MIN_SUBMIT_INTERVAL"
	ChallengeTTLEnv        = "CHALLENGE_TTL"
	MaintenanceIntervalEnv = "MAINTENANCE_INTERVAL"
	AllowedOriginsEnv      = "ALLOWED_ORIGINS"
)

type Config struct {
	Port           int
	DatabaseDriver string
	DatabaseURL    string
	LogLevel       string
	LogFormat      string
	SeedLevels     bool

	Rules               engine.Rules
	ChallengeTTL        time.Duration
	MaintenanceInterval time.Duration
	AllowedOrigins      []string
}

// Load reads the environment. Every malformed variable is reported, not just
// the first one.
func Load() (Config, error) {
	cfg := Config{
		DatabaseDriver: GetStringOrDefault(DatabaseDriverEnv, "sqlite"),
		DatabaseURL:    GetStringOrDefault(DatabaseUrlEnv, "file:wordbattle.db?_busy_timeout=5000"),
		LogLevel:       GetStringOrDefault(LogLevelEnv, "info"),
		LogFormat:      GetStringOrDefault(LogFormatEnv, "json"),
		SeedLevels:     GetStringOrDefault(SeedLevelsEnv, "true") == "true",
		AllowedOrigins: GetListOrDefault(AllowedOriginsEnv, nil),
		Rules:          engine.DefaultRules(),
	}

	var errs error
	var err error

	cfg.Port, err = GetIntOrDefault(PortEnv, 8080)
	errs = multierr.Append(errs, err)

	durations := []struct {
		key string
		dst *time.Duration
		def time.Duration
	}{
		{BattleDurationEnv, &cfg.Rules.Duration, cfg.Rules.Duration},
		{CountdownDurationEnv, &cfg.Rules.Countdown, cfg.Rules.Countdown},
		{ReconnectGraceEnv, &cfg.Rules.Grace, cfg.Rules.Grace},
		{ReadyTimeoutEnv, &cfg.Rules.ReadyTimeout, cfg.Rules.ReadyTimeout},
		{MinSubmitIntervalEnv, &cfg.Rules.MinSubmitInterval, cfg.Rules.MinSubmitInterval},
		{ChallengeTTLEnv, &cfg.ChallengeTTL, 5 * time.Minute},
		{MaintenanceIntervalEnv, &cfg.MaintenanceInterval, 30 * time.Second},
	}
	for _, d := range durations {
		*d.dst, err = GetDurationOrDefault(d.key, d.def)
		errs = multierr.Append(errs, err)
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		errs = multierr.Append(errs, fmt.Errorf("key: %s: unsupported driver %q", DatabaseDriverEnv, cfg.DatabaseDriver))
	}

	if errs != nil {
		return Config{}, errs
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
