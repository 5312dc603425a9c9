package render

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spd = "SPD*1.0*ACC:CZ6508000000192000145399*AM:450.00*CC:CZK*MSG:Payment for invoice 123"

func TestPNG_RoundTrip(t *testing.T) {
	for _, level := range []Level{Low, Medium, Quartile, High} {
		t.Run(level.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Level = level

			data, err := PNG(spd, opts)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))

			text, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, spd, text)
		})
	}
}

func TestImage_SizeAndColors(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = 256
	opts.Foreground = color.RGBA{R: 0, G: 0, B: 128, A: 255}

	img, err := Image("0007G0006UM5003CP2RA7P0V8VRJOK51RJE0VEGB80DGONRR3K1D4J774", opts)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	text, err := DecodeImage(img)
	require.NoError(t, err)
	assert.Equal(t, "0007G0006UM5003CP2RA7P0V8VRJOK51RJE0VEGB80DGONRR3K1D4J774", text)
}

func TestPNG_Errors(t *testing.T) {
	_, err := PNG("", DefaultOptions())
	assert.ErrorIs(t, err, ErrEmpty)

	opts := DefaultOptions()
	opts.Size = MaxSize + 1
	_, err = PNG(spd, opts)
	assert.ErrorIs(t, err, ErrInvalidSize)

	opts = DefaultOptions()
	opts.Level = Level(9)
	_, err = PNG(spd, opts)
	assert.True(t, errors.Is(err, ErrQREncode))
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrQRDecode)

	_, err = Decode([]byte("not a png"))
	assert.ErrorIs(t, err, ErrQRDecode)

	_, err = DecodeImage(nil)
	assert.ErrorIs(t, err, ErrQRDecode)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"low": Low, "L": Low, "Medium": Medium, "m": Medium,
		"quartile": Quartile, "Q": Quartile, "HIGH": High, "h": High,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("extreme")
	assert.Error(t, err)
}
