package qrcode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator_Defaults(t *testing.T) {
	g := NewGenerator()
	assert.Equal(t, DefaultSize, g.size)
	assert.Equal(t, High, g.recoveryLevel)

	g = NewGenerator(WithSize(5000), WithRecoveryLevel(Low))
	assert.Equal(t, MaxSize, g.size)
	assert.Equal(t, Low, g.recoveryLevel)
}

func TestClampSize(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultSize},
		{-1, DefaultSize},
		{10, MinSize},
		{300, 300},
		{4096, MaxSize},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampSize(tt.in), tt.in)
	}
}

func TestLabelContentRoundTrip(t *testing.T) {
	content := LabelContent(" A01 ")
	assert.Equal(t, "INV:A01", content)

	code, ok := ParseLabel(content)
	require.True(t, ok)
	assert.Equal(t, "A01", code)

	_, ok = ParseLabel("https://example.com")
	assert.False(t, ok)
	_, ok = ParseLabel(LabelPrefix)
	assert.False(t, ok)
}

func TestProductLabelPNG(t *testing.T) {
	g := NewGenerator()

	data, err := g.ProductLabelPNG("A01", 128)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())

	other, err := g.ProductLabelPNG("A02", 128)
	require.NoError(t, err)
	assert.NotEqual(t, data, other)

	_, err = g.ProductLabelPNG("  ", 0)
	assert.Error(t, err)
}
