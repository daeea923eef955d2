package config

import (
	"time"

	pginfra "github.com/hsinyuc/linecast/internal/repository/postgres"
)

type LineCfg struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBase     time.Duration `mapstructure:"retry_base"`
}

type SchedCfg struct {
	Tick        time.Duration `mapstructure:"tick"`
	Timezone    string        `mapstructure:"timezone"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

type HTTPCfg struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type KafkaCfg struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type OTELCfg struct {
	Enable      bool    `mapstructure:"enable"`
	Endpoint    string  `mapstructure:"otlp_endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type LogCfg struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	DB    pginfra.Config `mapstructure:"db"`
	Line  LineCfg        `mapstructure:"line"`
	Sched SchedCfg       `mapstructure:"sched"`
	HTTP  HTTPCfg        `mapstructure:"http"`
	Kafka KafkaCfg       `mapstructure:"kafka"`
	OTEL  OTELCfg        `mapstructure:"otel"`
	Log   LogCfg         `mapstructure:"log"`
}
