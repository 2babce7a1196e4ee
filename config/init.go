package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/rasterpost/rasterpost/internal/logger"
	"github.com/rasterpost/rasterpost/internal/tracing"
)

func InitConfig() (*Config, error) {
	config := &Config{
		IMAP:      &IMAPConfig{},
		SMTP:      &SMTPConfig{},
		Processor: &ProcessorConfig{},
		Converter: &ConverterConfig{},
		Logger:    &logger.Config{},
		Tracing:   &tracing.JaegerConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, errors.Wrap(err, "error loading rasterpost config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
