package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/qrpay/internal/config"
	"github.com/bibbank/qrpay/pkg/auth"
)

func TestNewJWTService(t *testing.T) {
	svc, err := newJWTService(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, svc)

	svc, err = newJWTService(config.Config{JWTSecret: "s3cret", JWTIssuer: "erp"})
	require.NoError(t, err)
	require.NotNil(t, svc)

	privPEM, pubPEM, err := auth.GenerateKeyPair()
	require.NoError(t, err)
	keyFile := filepath.Join(t.TempDir(), "jwt.pub")
	require.NoError(t, os.WriteFile(keyFile, pubPEM, 0o600))

	verifier, err := newJWTService(config.Config{JWTSecret: "ignored", JWTPublicKeyFile: keyFile})
	require.NoError(t, err)
	issuer, err := auth.NewJWTService(auth.JWTConfig{PrivateKeyPEM: string(privPEM), Expiration: time.Minute})
	require.NoError(t, err)
	token, err := issuer.GenerateToken("erp", nil)
	require.NoError(t, err)
	_, err = verifier.ValidateToken(token)
	assert.NoError(t, err)

	_, err = newJWTService(config.Config{JWTPublicKeyFile: "/nonexistent/jwt.pub"})
	assert.Error(t, err)
}
