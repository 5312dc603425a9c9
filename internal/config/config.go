package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bibbank/qrpay/pkg/lzma"
	"github.com/bibbank/qrpay/pkg/render"
)

// Compressor backends.
const (
	CompressorNative = "native"
	CompressorXZ     = "xz"
)

// Config holds all configuration for the QR payment service.
type Config struct {
	HTTPPort   int
	RateLimit  int // requests per second, 0 disables limiting
	LogLevel   string
	LogFormat  string
	Compressor string // CompressorNative or CompressorXZ
	XZPath     string // empty means search PATH and well-known directories
	XZTimeout  time.Duration
	QRSize     int
	QRLevel    string

	TLSCertFile string // HTTPS is served when both TLS files are set
	TLSKeyFile  string

	JWTSecret        string // HS256 key; enables bearer authentication
	JWTPublicKeyFile string // RS256 public key; preferred over JWTSecret
	JWTIssuer        string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		HTTPPort:   getEnvInt("HTTP_PORT", 8080),
		RateLimit:  getEnvInt("RATE_LIMIT", 100),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
		Compressor: strings.ToLower(getEnv("QRPAY_COMPRESSOR", CompressorNative)),
		XZPath:     getEnv("QRPAY_XZ_PATH", ""),
		XZTimeout:  getEnvDuration("QRPAY_XZ_TIMEOUT", lzma.DefaultTimeout),
		QRSize:     getEnvInt("QRPAY_QR_SIZE", render.DefaultSize),
		QRLevel:    getEnv("QRPAY_QR_LEVEL", "medium"),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTPublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", ""),
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT %d out of range", c.HTTPPort))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT must not be negative, got %d", c.RateLimit))
	}
	switch c.Compressor {
	case CompressorNative, CompressorXZ:
	default:
		errs = append(errs, fmt.Errorf("QRPAY_COMPRESSOR must be %q or %q, got %q", CompressorNative, CompressorXZ, c.Compressor))
	}
	if c.XZTimeout <= 0 {
		errs = append(errs, fmt.Errorf("QRPAY_XZ_TIMEOUT must be positive, got %s", c.XZTimeout))
	}
	if c.QRSize <= 0 || c.QRSize > render.MaxSize {
		errs = append(errs, fmt.Errorf("QRPAY_QR_SIZE must be between 1 and %d, got %d", render.MaxSize, c.QRSize))
	}
	if _, err := render.ParseLevel(c.QRLevel); err != nil {
		errs = append(errs, fmt.Errorf("QRPAY_QR_LEVEL: %w", err))
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	return errors.Join(errs...)
}

// TLSEnabled reports whether the server should listen with HTTPS.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// AuthEnabled reports whether API requests need a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != "" || c.JWTPublicKeyFile != ""
}

// RenderOptions returns the image options for rendered codes.
func (c Config) RenderOptions() render.Options {
	opts := render.DefaultOptions()
	opts.Size = c.QRSize
	if level, err := render.ParseLevel(c.QRLevel); err == nil {
		opts.Level = level
	}
	return opts
}

// NewCompressor returns the configured LZMA1 backend together with a
// readiness probe that fails while the backend cannot run.
func (c Config) NewCompressor(logger *slog.Logger) (lzma.Compressor, func(context.Context) error) {
	if c.Compressor != CompressorXZ {
		return lzma.Native{}, func(context.Context) error { return nil }
	}
	cmd := lzma.Command{Path: c.XZPath, Timeout: c.XZTimeout, Logger: logger}
	ready := func(context.Context) error {
		if cmd.Path == "" {
			if _, ok := lzma.FindXZ(); !ok {
				return fmt.Errorf("%w: xz binary not found in PATH", lzma.ErrUnavailable)
			}
			return nil
		}
		if _, err := os.Stat(cmd.Path); err != nil {
			return fmt.Errorf("%w: %w", lzma.ErrUnavailable, err)
		}
		return nil
	}
	return cmd, ready
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration parses a time.Duration such as "5s"; a bare integer is
// taken as seconds.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if i, err := strconv.Atoi(val); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultVal
}
