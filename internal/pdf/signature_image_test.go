package pdf

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessSignature_WhiteBackgroundBecomesTransparent(t *testing.T) {
	out, err := ProcessSignature(&Image{Data: pngBytes(t, 20, 10), Type: "png"})
	require.NoError(t, err)
	assert.Equal(t, "png", out.Type)

	img, _, err := image.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	bg := color.NRGBAModel.Convert(img.At(3, 0)).(color.NRGBA)
	assert.Equal(t, uint8(0), bg.A)
	stroke := color.NRGBAModel.Convert(img.At(3, 5)).(color.NRGBA)
	assert.Equal(t, inkColor, stroke)
}

func TestProcessSignature_Invalid(t *testing.T) {
	_, err := ProcessSignature(&Image{Data: []byte("not an image"), Type: "png"})
	assert.Error(t, err)
}

func TestInkIntensity(t *testing.T) {
	assert.Equal(t, 0, inkIntensity(color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
	assert.Equal(t, 255, inkIntensity(color.NRGBA{A: 255}))
	assert.Equal(t, 0, inkIntensity(color.NRGBA{A: 0}))
	assert.Less(t, inkIntensity(color.NRGBA{R: 200, G: 200, B: 200, A: 255}), signatureInkThreshold)
}
