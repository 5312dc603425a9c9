// Package bysquare implements the binary envelope of the Slovak "Pay by
// square" QR payment format: a CRC-32 prefixed payload, raw LZMA1
// compression, a four byte header and a 32 symbol text alphabet.
package bysquare

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"strings"

	"github.com/bibbank/qrpay/pkg/lzma"
)

// Alphabet maps 5-bit groups to output symbols. It is the RFC 4648
// "base32hex" alphabet, written without padding.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUV"

var textEncoding = base32.NewEncoding(Alphabet).WithPadding(base32.NoPadding)

const (
	headerLen   = 4
	checksumLen = 4
)

var (
	// ErrCompressor wraps any failure of the compression collaborator. It is a
	// configuration problem and is not retried.
	ErrCompressor = errors.New("bysquare: compressor failed")
	// ErrPayloadTooLarge is returned when the checksummed payload does not fit
	// the 16-bit length field of the header.
	ErrPayloadTooLarge = errors.New("bysquare: payload too large")
	// ErrInvalidSymbol is returned when decoding text outside Alphabet.
	ErrInvalidSymbol = errors.New("bysquare: invalid symbol")
	// ErrHeader is returned for a truncated or inconsistent header.
	ErrHeader = errors.New("bysquare: invalid header")
	// ErrChecksum is returned when the decoded payload fails its CRC-32 check.
	ErrChecksum = errors.New("bysquare: checksum mismatch")
)

// Encoder produces Pay by square text from an assembled payload.
type Encoder struct {
	compressor lzma.Compressor
}

// NewEncoder returns an Encoder that compresses with c.
func NewEncoder(c lzma.Compressor) *Encoder {
	return &Encoder{compressor: c}
}

// Encode checksums, compresses, frames and packs payload.
func (e *Encoder) Encode(ctx context.Context, payload []byte) (string, error) {
	if e == nil || e.compressor == nil {
		return "", fmt.Errorf("%w: no compressor configured", ErrCompressor)
	}

	data := WithChecksum(payload)
	if len(data) > math.MaxUint16 {
		return "", fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}

	compressed, err := e.compressor.Compress(ctx, data, lzma.SlovakParams)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompressor, err)
	}

	return Pack(Frame(compressed, len(data))), nil
}

// Checksum returns the CRC-32 (IEEE) of payload as four little-endian bytes,
// which is the big-endian digest reversed.
func Checksum(payload []byte) []byte {
	sum := make([]byte, checksumLen)
	binary.LittleEndian.PutUint32(sum, crc32.ChecksumIEEE(payload))
	return sum
}

// WithChecksum returns payload prefixed by its Checksum.
func WithChecksum(payload []byte) []byte {
	out := make([]byte, 0, checksumLen+len(payload))
	out = append(out, Checksum(payload)...)
	return append(out, payload...)
}

// Frame prepends the header: two zero bytes for the document type followed
// by the uncompressed length as a little-endian uint16.
func Frame(compressed []byte, uncompressedLen int) []byte {
	out := make([]byte, headerLen, headerLen+len(compressed))
	binary.LittleEndian.PutUint16(out[2:], uint16(uncompressedLen))
	return append(out, compressed...)
}

// Pack spreads b over 5-bit groups, most significant bit first, right-padding
// the last group with zero bits, and maps each group through Alphabet.
func Pack(b []byte) string {
	return textEncoding.EncodeToString(b)
}

// Unpack reverses Pack. Trailing pad bits that do not complete a byte are
// dropped.
func Unpack(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)*5/8)

	var acc uint32
	bits := 0
	for i := 0; i < len(s); i++ {
		v := strings.IndexByte(Alphabet, s[i])
		if v < 0 {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidSymbol, s[i], i)
		}
		acc = acc<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits))
		}
	}
	return out, nil
}

// Decode reverses Encode: it unpacks s, checks the header,
// decompresses, verifies the checksum and returns the tab separated payload.
func Decode(s string) ([]byte, error) {
	framed, err := Unpack(s)
	if err != nil {
		return nil, err
	}
	if len(framed) < headerLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeader, len(framed))
	}
	if framed[0] != 0 || framed[1] != 0 {
		return nil, fmt.Errorf("%w: unsupported document type %#02x%02x", ErrHeader, framed[0], framed[1])
	}
	want := int(binary.LittleEndian.Uint16(framed[2:headerLen]))

	data, err := lzma.Decompress(framed[headerLen:], lzma.SlovakParams, want)
	if errors.Is(err, lzma.ErrTooLarge) {
		return nil, fmt.Errorf("%w: stream longer than length field %d: %w", ErrHeader, want, err)
	}
	if err != nil {
		return nil, err
	}
	if len(data) != want {
		return nil, fmt.Errorf("%w: length field %d, decompressed %d bytes", ErrHeader, want, len(data))
	}
	if len(data) < checksumLen {
		return nil, fmt.Errorf("%w: missing checksum", ErrChecksum)
	}

	sum, payload := data[:checksumLen], data[checksumLen:]
	if !bytes.Equal(sum, Checksum(payload)) {
		return nil, fmt.Errorf("%w: got %x, want %x", ErrChecksum, sum, Checksum(payload))
	}
	return payload, nil
}
