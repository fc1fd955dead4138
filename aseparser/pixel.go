package aseparser

import (
	"fmt"
)

// toNRGBA converts decompressed cel pixels to straight-alpha RGBA bytes.
// Truecolor input is returned as is.
func toNRGBA(raw []byte, depth ColorDepth, pal *Palette, transparent uint8) ([]byte, error) {
	bpp := depth.bytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: color depth %d", ErrFormat, depth)
	}
	if len(raw)%bpp != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %s pixels", ErrFormat, len(raw), depth)
	}

	switch depth {
	case Truecolor:
		return raw, nil

	case Grayscale:
		pix := make([]byte, len(raw)*2)
		for i, j := 0, 0; i < len(raw); i, j = i+2, j+4 {
			v, a := raw[i], raw[i+1]
			pix[j+0] = v
			pix[j+1] = v
			pix[j+2] = v
			pix[j+3] = a
		}
		return pix, nil

	case Indexed:
		pix := make([]byte, len(raw)*4)
		for i, idx := range raw {
			if idx == transparent || pal == nil {
				continue
			}
			c := pal[idx]
			j := i * 4
			pix[j+0] = c.R
			pix[j+1] = c.G
			pix[j+2] = c.B
			pix[j+3] = c.A
		}
		return pix, nil
	}

	return nil, fmt.Errorf("%w: color depth %d", ErrFormat, depth)
}
