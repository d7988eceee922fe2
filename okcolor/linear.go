package okcolor

import (
	"image/color"
	"math"
)

type LinearRGBA struct {
	R float64
	G float64
	B float64
	A uint16
}

func linearRGBAConvert(c color.Color) color.Color {
	if _, ok := c.(LinearRGBA); ok {
		return c
	}

	return sRGBToLinearRGB(color.RGBA64Model.Convert(c).(color.RGBA64))
}

func (lc LinearRGBA) RGBA() (uint32, uint32, uint32, uint32) {
	c := linearRGBToSRGB(LinearRGBA{
		R: clamp(lc.R, 0, 1),
		G: clamp(lc.G, 0, 1),
		B: clamp(lc.B, 0, 1),
		A: lc.A,
	})
	return uint32(c.R), uint32(c.G), uint32(c.B), uint32(c.A)
}

func linearRGBToSRGB(lc LinearRGBA) color.RGBA64 {
	return color.RGBA64{
		R: uint16(math.Round(fromLinear(lc.R) * 65535)),
		G: uint16(math.Round(fromLinear(lc.G) * 65535)),
		B: uint16(math.Round(fromLinear(lc.B) * 65535)),
		A: lc.A,
	}
}

// sRGBToLinearRGB expects straight (non premultiplied) channels.
func sRGBToLinearRGB(c color.RGBA64) LinearRGBA {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	if c.A != 0 && c.A != 0xffff {
		a := float64(c.A)
		r, g, b = r*65535/a, g*65535/a, b*65535/a
	}
	return LinearRGBA{
		R: toLinear(r / 65535),
		G: toLinear(g / 65535),
		B: toLinear(b / 65535),
		A: c.A,
	}
}

func toLinear(x float64) float64 {
	if x >= 0.04045 {
		return math.Pow((x+0.055)/1.055, 2.4)
	} else {
		return x / 12.92
	}
}

const pow float64 = 1.0 / 2.4

func fromLinear(x float64) float64 {
	if x >= 0.0031308 {
		return math.Pow(x, pow)*1.055 - 0.055
	} else {
		return x * 12.92
	}
}
