package config

import (
	"regexp"
	"time"

	"github.com/pkg/errors"

	"github.com/rasterpost/rasterpost/internal/logger"
	"github.com/rasterpost/rasterpost/internal/tracing"
	"github.com/rasterpost/rasterpost/internal/utils"
)

type IMAPConfig struct {
	Host     string `env:"IMAP_HOST,required"`
	Port     int    `env:"IMAP_PORT,required"`
	Username string `env:"IMAP_USERNAME,required"`
	Password string `env:"IMAP_PASSWORD,required"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST,required"`
	Port     int    `env:"SMTP_PORT,required"`
	Username string `env:"SMTP_USERNAME,required"`
	Password string `env:"SMTP_PASSWORD,required"`
}

type ProcessorConfig struct {
	// SenderWhitelistRegex gates which senders get processed at all.
	SenderWhitelistRegex string `env:"SENDER_WHITELIST_REGEX,required"`
	// CCAddresses is semicolon-delimited; empty means no CC header is produced.
	CCAddresses             string `env:"CC_ADDRESSES"`
	PollingIntervalSeconds  int    `env:"POLLING_INTERVAL_SECONDS" envDefault:"60"`
	MaxRetryIntervalSeconds int    `env:"MAX_RETRY_INTERVAL_SECONDS" envDefault:"900"`
}

type ConverterConfig struct {
	Binary                   string `env:"MAGICK_BINARY" envDefault:"magick"`
	ResolutionWidth          int    `env:"PDF_RESOLUTION_WIDTH" envDefault:"1920"`
	ResolutionHeight         int    `env:"PDF_RESOLUTION_HEIGHT" envDefault:"1080"`
	DensityDPI               int    `env:"PDF_DENSITY_DPI" envDefault:"300"`
	Background               string `env:"PDF_BACKGROUND" envDefault:"white"`
	ConversionTimeoutSeconds int    `env:"PDF_CONVERSION_TIMEOUT_SECONDS" envDefault:"120"`
	MaxPDFSizeBytes          int    `env:"PDF_MAX_SIZE_BYTES" envDefault:"104857600"`
}

// Config is constructed once at startup and passed by reference into every
// component constructor. Nothing reads configuration ambiently after that.
type Config struct {
	IMAP      *IMAPConfig
	SMTP      *SMTPConfig
	Processor *ProcessorConfig
	Converter *ConverterConfig
	Logger    *logger.Config
	Tracing   *tracing.JaegerConfig
}

const minPollingIntervalSeconds = 10

// Validate rejects any configuration the daemon cannot safely start with.
// It runs once at startup; a failure here aborts the process.
func (c *Config) Validate() error {
	if c.IMAP.Port < 1 || c.IMAP.Port > 65535 {
		return errors.Errorf("IMAP_PORT must be in range 1-65535, got %d", c.IMAP.Port)
	}
	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		return errors.Errorf("SMTP_PORT must be in range 1-65535, got %d", c.SMTP.Port)
	}

	if _, err := regexp.Compile(c.Processor.SenderWhitelistRegex); err != nil {
		return errors.Wrap(err, "invalid SENDER_WHITELIST_REGEX")
	}

	if c.Processor.PollingIntervalSeconds < minPollingIntervalSeconds {
		return errors.Errorf("POLLING_INTERVAL_SECONDS must be >= %d to prevent excessive polling, got %d",
			minPollingIntervalSeconds, c.Processor.PollingIntervalSeconds)
	}
	if c.Processor.MaxRetryIntervalSeconds < c.Processor.PollingIntervalSeconds {
		return errors.Errorf("MAX_RETRY_INTERVAL_SECONDS (%d) must be >= POLLING_INTERVAL_SECONDS (%d)",
			c.Processor.MaxRetryIntervalSeconds, c.Processor.PollingIntervalSeconds)
	}

	if c.Converter.ResolutionWidth <= 0 || c.Converter.ResolutionHeight <= 0 {
		return errors.Errorf("target resolution %dx%d is not valid",
			c.Converter.ResolutionWidth, c.Converter.ResolutionHeight)
	}
	if c.Converter.DensityDPI <= 0 {
		return errors.Errorf("PDF_DENSITY_DPI must be positive, got %d", c.Converter.DensityDPI)
	}
	if c.Converter.ConversionTimeoutSeconds <= 0 {
		return errors.Errorf("PDF_CONVERSION_TIMEOUT_SECONDS must be positive, got %d", c.Converter.ConversionTimeoutSeconds)
	}
	if c.Converter.Binary == "" {
		return errors.New("MAGICK_BINARY must not be empty")
	}

	return nil
}

func (c *ProcessorConfig) CCList() []string {
	return utils.SplitAddressList(c.CCAddresses)
}

func (c *ProcessorConfig) PollingInterval() time.Duration {
	return time.Duration(c.PollingIntervalSeconds) * time.Second
}

func (c *ProcessorConfig) MaxRetryInterval() time.Duration {
	return time.Duration(c.MaxRetryIntervalSeconds) * time.Second
}

func (c *ConverterConfig) ConversionTimeout() time.Duration {
	return time.Duration(c.ConversionTimeoutSeconds) * time.Second
}
