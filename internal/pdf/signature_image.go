package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
)

// Tom único de "tinta" aplicado aos traços da assinatura.
var inkColor = color.NRGBA{R: 0x1b, G: 0x2a, B: 0x4e, A: 0xff}

// Intensidade mínima (0-255) para um pixel contar como traço.
const signatureInkThreshold = 80

// ProcessSignature recolore os traços para inkColor e torna o fundo transparente.
// A intensidade de um pixel combina alfa e escuridão, de modo que funciona tanto para PNG
// com fundo transparente quanto para JPEG com fundo branco.
func ProcessSignature(img *Image) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("decode assinatura: %w", err)
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			if inkIntensity(c) >= signatureInkThreshold {
				dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, inkColor)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode assinatura: %w", err)
	}
	return &Image{Data: buf.Bytes(), Type: "png"}, nil
}

func inkIntensity(c color.NRGBA) int {
	lum := (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
	return int(c.A) * (255 - lum) / 255
}
