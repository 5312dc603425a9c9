// Package render draws QR payment payloads as QR code images and reads them
// back.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	qrgen "github.com/skip2/go-qrcode"
)

// QR code errors
var (
	ErrQREncode    = errors.New("failed to encode QR code")
	ErrQRDecode    = errors.New("failed to decode QR code")
	ErrInvalidSize = errors.New("invalid QR code size")
	ErrEmpty       = errors.New("empty QR payload")
)

const (
	// DefaultSize is the default image size in pixels.
	DefaultSize = 300
	// MaxSize bounds the image size in pixels.
	MaxSize = 4096
)

// Level is the QR error correction level.
type Level int

const (
	Low Level = iota
	Medium
	Quartile
	High
)

var levelNames = map[Level]string{
	Low:      "low",
	Medium:   "medium",
	Quartile: "quartile",
	High:     "high",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel accepts a level name or its initial (L, M, Q, H), in any case.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range levelNames {
		if s == name || s == name[:1] {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown error correction level %q", s)
}

func (l Level) recovery() (qrgen.RecoveryLevel, error) {
	switch l {
	case Low:
		return qrgen.Low, nil
	case Medium:
		return qrgen.Medium, nil
	case Quartile:
		return qrgen.High, nil
	case High:
		return qrgen.Highest, nil
	}
	return 0, fmt.Errorf("unknown error correction level %d", int(l))
}

// Options controls the rendered image.
type Options struct {
	Level      Level
	Size       int
	Foreground color.Color
	Background color.Color
}

// DefaultOptions renders a 300px black on white code at medium level.
func DefaultOptions() Options {
	return Options{
		Level:      Medium,
		Size:       DefaultSize,
		Foreground: color.Black,
		Background: color.White,
	}
}

func (o Options) code(payload string) (*qrgen.QRCode, int, error) {
	if payload == "" {
		return nil, 0, ErrEmpty
	}
	size := o.Size
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		return nil, 0, ErrInvalidSize
	}
	level, err := o.Level.recovery()
	if err != nil {
		return nil, 0, errors.Join(ErrQREncode, err)
	}

	qr, err := qrgen.New(payload, level)
	if err != nil {
		return nil, 0, errors.Join(ErrQREncode, err)
	}
	if o.Foreground != nil {
		qr.ForegroundColor = o.Foreground
	}
	if o.Background != nil {
		qr.BackgroundColor = o.Background
	}
	return qr, size, nil
}

// PNG renders payload as a PNG image.
func PNG(payload string, opts Options) ([]byte, error) {
	qr, size, err := opts.code(payload)
	if err != nil {
		return nil, err
	}
	data, err := qr.PNG(size)
	if err != nil {
		return nil, errors.Join(ErrQREncode, err)
	}
	return data, nil
}

// Image renders payload as an image.Image.
func Image(payload string, opts Options) (image.Image, error) {
	qr, size, err := opts.code(payload)
	if err != nil {
		return nil, err
	}
	return qr.Image(size), nil
}

// Decode scans a PNG image and returns the payload text.
func Decode(pngData []byte) (string, error) {
	if len(pngData) == 0 {
		return "", ErrQRDecode
	}
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return "", errors.Join(ErrQRDecode, err)
	}
	return DecodeImage(img)
}

// DecodeImage scans img and returns the payload text.
func DecodeImage(img image.Image) (string, error) {
	if img == nil {
		return "", ErrQRDecode
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", errors.Join(ErrQRDecode, err)
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", errors.Join(ErrQRDecode, err)
	}
	return result.GetText(), nil
}
