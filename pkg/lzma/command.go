package lzma

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// DefaultTimeout bounds a single xz invocation when Command.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Command compresses by running the xz executable in raw LZMA1 mode.
type Command struct {
	// Path to the xz binary. When empty, PATH and the usual install
	// directories are searched on every call.
	Path string
	// Timeout for one invocation; DefaultTimeout when zero.
	Timeout time.Duration
	// Logger receives per-invocation diagnostics; nil disables them.
	Logger *slog.Logger
}

// Compress implements Compressor.
func (c Command) Compress(ctx context.Context, data []byte, p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	bin, err := c.resolve()
	if err != nil {
		return nil, err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--format=raw", "--lzma1="+p.String(), "-c", "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, ctxErr)
		}
		return nil, ctxErr
	}
	if err != nil {
		return nil, fmt.Errorf("lzma: %s: %w: %s", bin, err, strings.TrimSpace(stderr.String()))
	}

	if c.Logger != nil {
		c.Logger.Debug("xz compressed payload",
			"binary", bin,
			"in_bytes", len(data),
			"out_bytes", stdout.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return stdout.Bytes(), nil
}

func (c Command) resolve() (string, error) {
	if c.Path == "" {
		if p, ok := FindXZ(); ok {
			return p, nil
		}
		return "", fmt.Errorf("%w: xz binary not found in PATH", ErrUnavailable)
	}
	if _, err := os.Stat(c.Path); err != nil {
		return "", fmt.Errorf("%w: xz binary %q: %w", ErrUnavailable, c.Path, err)
	}
	return c.Path, nil
}

// FindXZ searches for the xz executable on PATH first, then in the
// directories package managers commonly install it to.
func FindXZ() (string, bool) {
	name := "xz"
	if runtime.GOOS == "windows" {
		name = "xz.exe"
	}

	if p, err := exec.LookPath(name); err == nil {
		return p, true
	}

	for _, dir := range xzDirs() {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// xzDirs lists fallback install locations for the current OS.
func xzDirs() []string {
	switch runtime.GOOS {
	case "linux":
		return []string{"/usr/bin", "/usr/local/bin", "/bin"}
	case "darwin":
		// Homebrew on Apple Silicon, then Intel, then MacPorts.
		return []string{"/opt/homebrew/bin", "/usr/local/bin", "/opt/local/bin"}
	case "windows":
		pf := os.Getenv("ProgramFiles")
		if pf == "" {
			pf = `C:\Program Files`
		}
		return []string{filepath.Join(pf, "xz", "bin_x86-64"), filepath.Join(pf, "xz")}
	default:
		return nil
	}
}
