package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/qrpay/pkg/lzma"
	"github.com/bibbank/qrpay/pkg/render"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "RATE_LIMIT", "LOG_LEVEL", "LOG_FORMAT", "QRPAY_COMPRESSOR",
		"QRPAY_XZ_PATH", "QRPAY_XZ_TIMEOUT", "QRPAY_QR_SIZE", "QRPAY_QR_LEVEL"} {
		t.Setenv(key, "")
	}
	// t.Setenv cannot unset; empty numeric values fall back to defaults.
	cfg := Load()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.XZTimeout)
	assert.Equal(t, render.DefaultSize, cfg.QRSize)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RATE_LIMIT", "0")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("QRPAY_COMPRESSOR", "XZ")
	t.Setenv("QRPAY_XZ_PATH", "/opt/xz/bin/xz")
	t.Setenv("QRPAY_XZ_TIMEOUT", "3")
	t.Setenv("QRPAY_QR_SIZE", "512")
	t.Setenv("QRPAY_QR_LEVEL", "H")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 0, cfg.RateLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, CompressorXZ, cfg.Compressor)
	assert.Equal(t, "/opt/xz/bin/xz", cfg.XZPath)
	assert.Equal(t, 3*time.Second, cfg.XZTimeout)

	opts := cfg.RenderOptions()
	assert.Equal(t, 512, opts.Size)
	assert.Equal(t, render.High, opts.Level)
}

func TestLoad_DurationSyntax(t *testing.T) {
	t.Setenv("QRPAY_XZ_TIMEOUT", "1500ms")
	assert.Equal(t, 1500*time.Millisecond, Load().XZTimeout)

	t.Setenv("QRPAY_XZ_TIMEOUT", "soon")
	assert.Equal(t, 10*time.Second, Load().XZTimeout)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		HTTPPort:   0,
		RateLimit:  -1,
		Compressor: "zstd",
		XZTimeout:  0,
		QRSize:     render.MaxSize + 1,
		QRLevel:    "ultra",

		TLSCertFile: "/etc/qrpay/cert.pem",
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"HTTP_PORT", "RATE_LIMIT", "QRPAY_COMPRESSOR", "QRPAY_XZ_TIMEOUT", "QRPAY_QR_SIZE", "QRPAY_QR_LEVEL", "TLS_KEY_FILE"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestNewCompressor(t *testing.T) {
	c, ready := Config{Compressor: CompressorNative}.NewCompressor(nil)
	assert.IsType(t, lzma.Native{}, c)
	assert.NoError(t, ready(context.Background()))

	cfg := Config{Compressor: CompressorXZ, XZPath: "/nonexistent/xz", XZTimeout: time.Second}
	c, ready = cfg.NewCompressor(nil)
	require.IsType(t, lzma.Command{}, c)
	assert.Equal(t, "/nonexistent/xz", c.(lzma.Command).Path)
	assert.Equal(t, time.Second, c.(lzma.Command).Timeout)
	assert.ErrorIs(t, ready(context.Background()), lzma.ErrUnavailable)
}

func TestTLSAndAuthSwitches(t *testing.T) {
	var cfg Config
	assert.False(t, cfg.TLSEnabled())
	assert.False(t, cfg.AuthEnabled())

	t.Setenv("TLS_CERT_FILE", "/etc/qrpay/cert.pem")
	t.Setenv("TLS_KEY_FILE", "/etc/qrpay/key.pem")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_ISSUER", "erp")
	cfg = Load()
	assert.True(t, cfg.TLSEnabled())
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, "erp", cfg.JWTIssuer)
}
