// Package lzma provides raw (headerless) LZMA1 compression as required by the
// Slovak "Pay by square" payload. Two Compressor implementations are offered:
// Native, which runs in-process, and Command, which pipes data through an
// installed xz executable.
package lzma

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// headerLen is the size of the classic .lzma header: one properties byte,
// a 32-bit dictionary size and a 64-bit uncompressed size.
const headerLen = 13

// minDictSize is the smallest dictionary an LZMA1 stream may declare.
const minDictSize = 1 << 12

var (
	// ErrUnavailable reports that no working compressor could be found.
	ErrUnavailable = errors.New("lzma: compressor unavailable")
	// ErrTimeout reports that the compressor did not answer in time.
	ErrTimeout = errors.New("lzma: compressor timed out")
	// ErrParams reports out-of-range LZMA1 parameters.
	ErrParams = errors.New("lzma: invalid parameters")
	// ErrTooLarge reports a stream that decodes to more bytes than allowed.
	ErrTooLarge = errors.New("lzma: stream exceeds size limit")
)

// Params are the out-of-band LZMA1 parameters a raw stream is encoded with.
// A decoder needs exactly the same values.
type Params struct {
	LC       int // literal context bits, 0..8
	LP       int // literal position bits, 0..4
	PB       int // position bits, 0..4
	DictSize int // dictionary size in bytes
}

// SlovakParams are the parameters mandated for Pay by square payloads.
var SlovakParams = Params{LC: 3, LP: 0, PB: 2, DictSize: 128 << 10}

// Validate checks that the parameters are within LZMA1 limits.
func (p Params) Validate() error {
	switch {
	case p.LC < 0 || p.LC > 8:
		return fmt.Errorf("%w: lc=%d", ErrParams, p.LC)
	case p.LP < 0 || p.LP > 4:
		return fmt.Errorf("%w: lp=%d", ErrParams, p.LP)
	case p.PB < 0 || p.PB > 4:
		return fmt.Errorf("%w: pb=%d", ErrParams, p.PB)
	case p.DictSize < minDictSize:
		return fmt.Errorf("%w: dict=%d", ErrParams, p.DictSize)
	}
	return nil
}

// propsByte is the single-byte encoding of lc/lp/pb used by LZMA headers.
func (p Params) propsByte() byte {
	return byte((p.PB*5+p.LP)*9 + p.LC)
}

// String renders the parameters in xz's --lzma1 option syntax.
func (p Params) String() string {
	dict := fmt.Sprintf("%d", p.DictSize)
	if p.DictSize%1024 == 0 {
		dict = fmt.Sprintf("%dKiB", p.DictSize/1024)
	}
	return fmt.Sprintf("lc=%d,lp=%d,pb=%d,dict=%s", p.LC, p.LP, p.PB, dict)
}

// Compressor turns bytes into a raw LZMA1 stream encoded with the given
// parameters. Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(ctx context.Context, data []byte, p Params) ([]byte, error)
}

// CompressorFunc adapts an ordinary function to the Compressor interface.
type CompressorFunc func(ctx context.Context, data []byte, p Params) ([]byte, error)

// Compress calls f(ctx, data, p).
func (f CompressorFunc) Compress(ctx context.Context, data []byte, p Params) ([]byte, error) {
	return f(ctx, data, p)
}

// Native compresses in-process. The zero value is ready to use.
type Native struct{}

// Compress implements Compressor. The stream is terminated with an
// end-of-stream marker, as xz does for raw LZMA1 output.
func (Native) Compress(ctx context.Context, data []byte, p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	cfg := lzma.WriterConfig{
		Properties: &lzma.Properties{LC: p.LC, LP: p.LP, PB: p.PB},
		DictCap:    p.DictSize,
		EOSMarker:  true,
	}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("lzma: create writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lzma: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzma: close: %w", err)
	}

	out := buf.Bytes()
	if len(out) < headerLen {
		return nil, fmt.Errorf("lzma: short stream of %d bytes", len(out))
	}
	return out[headerLen:], nil
}

// Decompress decodes a raw LZMA1 stream that was encoded with p and ends with
// an end-of-stream marker. Decoding stops with ErrTooLarge as soon as more
// than limit bytes come out.
func Decompress(raw []byte, p Params, limit int) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", ErrParams, limit)
	}

	header := make([]byte, headerLen)
	header[0] = p.propsByte()
	binary.LittleEndian.PutUint32(header[1:5], uint32(p.DictSize))
	binary.LittleEndian.PutUint64(header[5:], ^uint64(0))

	r, err := lzma.NewReader(io.MultiReader(bytes.NewReader(header), bytes.NewReader(raw)))
	if err != nil {
		return nil, fmt.Errorf("lzma: open stream: %w", err)
	}
	out, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("lzma: decode: %w", err)
	}
	if len(out) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return out, nil
}
