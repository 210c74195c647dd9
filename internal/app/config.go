package app

import (
	"github.com/yungbote/trackflow-backend/internal/platform/envutil"
	"github.com/yungbote/trackflow-backend/internal/temporalx"
)

type Config struct {
	Port     string
	Temporal temporalx.Config
}

func LoadConfig() Config {
	return Config{
		Port:     envutil.Str("PORT", "8080"),
		Temporal: temporalx.LoadConfig(),
	}
}
