package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Validator is any payment record that reports field violations.
type Validator interface {
	Validate() []string
}

// RequireValid fails the test immediately if v reports any violation.
func RequireValid(t *testing.T, v Validator) {
	t.Helper()
	require.Empty(t, v.Validate(), "unexpected violations")
}

// AssertViolation checks that v reports msg among its violations.
func AssertViolation(t *testing.T, v Validator, msg string) {
	t.Helper()
	assert.Contains(t, v.Validate(), msg)
}

// AssertErrorContains checks that err contains the expected substring.
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	assert.Error(t, err)
	if err != nil {
		assert.Contains(t, err.Error(), expected)
	}
}
