package lzma_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/qrpay/pkg/lzma"
)

var samples = map[string][]byte{
	"empty":      {},
	"short":      []byte("1\t1\t450.00\tEUR"),
	"repetitive": bytes.Repeat([]byte("PAY BY SQUARE "), 200),
	"binary":     {0x00, 0xff, 0x10, 0x80, 0x7f, 0x00, 0x00, 0x01},
	"utf8":       []byte("Platba za zboží – faktúra č. 2024/15"),
}

func TestParams_String(t *testing.T) {
	assert.Equal(t, "lc=3,lp=0,pb=2,dict=128KiB", lzma.SlovakParams.String())
	assert.Equal(t, "lc=0,lp=0,pb=0,dict=5000", lzma.Params{DictSize: 5000}.String())
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, lzma.SlovakParams.Validate())

	invalid := []lzma.Params{
		{LC: 9, PB: 2, DictSize: 1 << 16},
		{LC: 3, LP: 5, DictSize: 1 << 16},
		{LC: 3, PB: -1, DictSize: 1 << 16},
		{LC: 3, PB: 2, DictSize: 100},
	}
	for _, p := range invalid {
		assert.ErrorIs(t, p.Validate(), lzma.ErrParams, p.String())
	}
}

func TestNative_RoundTrip(t *testing.T) {
	for name, data := range samples {
		t.Run(name, func(t *testing.T) {
			raw, err := lzma.Native{}.Compress(context.Background(), data, lzma.SlovakParams)
			require.NoError(t, err)
			assert.NotEmpty(t, raw)

			got, err := lzma.Decompress(raw, lzma.SlovakParams, len(data))
			require.NoError(t, err)
			assert.Equal(t, len(data), len(got))
			assert.True(t, bytes.Equal(data, got))
		})
	}
}

func TestNative_Deterministic(t *testing.T) {
	data := samples["repetitive"]
	a, err := lzma.Native{}.Compress(context.Background(), data, lzma.SlovakParams)
	require.NoError(t, err)
	b, err := lzma.Native{}.Compress(context.Background(), data, lzma.SlovakParams)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Less(t, len(a), len(data))
}

func TestNative_RejectsBadParams(t *testing.T) {
	_, err := lzma.Native{}.Compress(context.Background(), []byte("x"), lzma.Params{LC: 12, DictSize: 1 << 16})
	assert.ErrorIs(t, err, lzma.ErrParams)
}

func TestNative_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := lzma.Native{}.Compress(ctx, []byte("x"), lzma.SlovakParams)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecompress_Garbage(t *testing.T) {
	_, err := lzma.Decompress([]byte{0x01, 0x02, 0x03}, lzma.SlovakParams, 1024)
	assert.Error(t, err)
}

func TestDecompress_Limit(t *testing.T) {
	data := bytes.Repeat([]byte{0}, 1<<20)
	raw, err := lzma.Native{}.Compress(context.Background(), data, lzma.SlovakParams)
	require.NoError(t, err)

	got, err := lzma.Decompress(raw, lzma.SlovakParams, len(data))
	require.NoError(t, err)
	assert.Len(t, got, len(data))

	_, err = lzma.Decompress(raw, lzma.SlovakParams, len(data)-1)
	assert.ErrorIs(t, err, lzma.ErrTooLarge)

	_, err = lzma.Decompress(raw, lzma.SlovakParams, 10)
	assert.ErrorIs(t, err, lzma.ErrTooLarge)

	_, err = lzma.Decompress(raw, lzma.SlovakParams, -1)
	assert.ErrorIs(t, err, lzma.ErrParams)
}

func TestCompressorFunc(t *testing.T) {
	var called bool
	c := lzma.CompressorFunc(func(_ context.Context, data []byte, p lzma.Params) ([]byte, error) {
		called = true
		assert.Equal(t, lzma.SlovakParams, p)
		return data, nil
	})
	out, err := c.Compress(context.Background(), []byte("abc"), lzma.SlovakParams)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []byte("abc"), out)
}

func TestCommand_MissingBinary(t *testing.T) {
	c := lzma.Command{Path: filepath.Join(t.TempDir(), "no-such-xz")}
	_, err := c.Compress(context.Background(), []byte("x"), lzma.SlovakParams)
	assert.ErrorIs(t, err, lzma.ErrUnavailable)
}

func TestCommand_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub requires a POSIX shell")
	}
	stub := filepath.Join(t.TempDir(), "xz")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755))

	c := lzma.Command{Path: stub, Timeout: 50 * time.Millisecond}
	start := time.Now()
	_, err := c.Compress(context.Background(), []byte("x"), lzma.SlovakParams)
	assert.ErrorIs(t, err, lzma.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestCommand_FailingBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub requires a POSIX shell")
	}
	stub := filepath.Join(t.TempDir(), "xz")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\necho 'unsupported filter' >&2\nexit 1\n"), 0o755))

	_, err := lzma.Command{Path: stub}.Compress(context.Background(), []byte("x"), lzma.SlovakParams)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported filter")
}

func TestCommand_Arguments(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub requires a POSIX shell")
	}
	// The stub echoes its arguments so the invocation contract can be checked.
	stub := filepath.Join(t.TempDir(), "xz")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\ncat >/dev/null\necho \"$@\"\n"), 0o755))

	out, err := lzma.Command{Path: stub}.Compress(context.Background(), []byte("x"), lzma.SlovakParams)
	require.NoError(t, err)
	assert.Equal(t, "--format=raw --lzma1=lc=3,lp=0,pb=2,dict=128KiB -c -", strings.TrimSpace(string(out)))
}

// TestCommand_InteropWithNative checks that both implementations produce
// streams the other side can read. It needs a real xz binary.
func TestCommand_InteropWithNative(t *testing.T) {
	bin, ok := lzma.FindXZ()
	if !ok {
		t.Skip("xz not installed")
	}
	ctx := context.Background()

	for name, data := range samples {
		t.Run(name, func(t *testing.T) {
			raw, err := lzma.Command{Path: bin}.Compress(ctx, data, lzma.SlovakParams)
			require.NoError(t, err)
			got, err := lzma.Decompress(raw, lzma.SlovakParams, len(data))
			require.NoError(t, err)
			assert.True(t, bytes.Equal(data, got))

			native, err := lzma.Native{}.Compress(ctx, data, lzma.SlovakParams)
			require.NoError(t, err)
			cmd := exec.Command(bin, "--decompress", "--format=raw", "--lzma1="+lzma.SlovakParams.String(), "-c", "-")
			cmd.Stdin = bytes.NewReader(native)
			decoded, err := cmd.Output()
			require.NoError(t, err)
			assert.True(t, bytes.Equal(data, decoded))
		})
	}
}
