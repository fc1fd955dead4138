package aseparser

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

var opacityMasks [256]image.Uniform

func init() {
	for i := range opacityMasks {
		opacityMasks[i].C = color.Alpha{uint8(i)}
	}
}

// layerTable accumulates layers across all frames of one document.
type layerTable struct {
	layers []Layer
}

func (t *layerTable) add(l Layer) {
	l.Index = len(t.layers)
	l.Visible = l.Flags&LayerVisible != 0 && l.Flags&LayerReference == 0
	if parent := t.parent(l.ChildLevel); parent != nil && !parent.Visible {
		l.Visible = false
	}
	t.layers = append(t.layers, l)
}

// parent returns the closest earlier layer one level up, if any.
func (t *layerTable) parent(level int) *Layer {
	if level == 0 {
		return nil
	}
	for i := len(t.layers) - 1; i >= 0; i-- {
		if t.layers[i].ChildLevel < level {
			return &t.layers[i]
		}
	}
	return nil
}

// lookup returns the visibility and opacity of layer i. Unknown layers are
// visible and opaque.
func (t *layerTable) lookup(i int) (visible bool, opacity uint8) {
	if i < 0 || i >= len(t.layers) {
		return true, 255
	}
	l := &t.layers[i]
	return l.Visible, l.Opacity
}

// compositor draws cels into frame canvases. Finished canvases are kept in
// an arena indexed by frame so linked cels can share them.
type compositor struct {
	bounds   image.Rectangle
	canvases []*image.NRGBA
}

func newCompositor(h *Header) *compositor {
	return &compositor{
		bounds:   image.Rect(0, 0, h.Width, h.Height),
		canvases: make([]*image.NRGBA, 0, h.Frames),
	}
}

// compositeFrame builds the canvas of frame index from its cels, drawn in
// the order given. Compressed cels must already be decoded.
func (c *compositor) compositeFrame(index int, cels []*cel, layers *layerTable) (*image.NRGBA, error) {
	if index != len(c.canvases) {
		return nil, fmt.Errorf("aseparser: frame %d composited out of order", index)
	}

	var canvas *image.NRGBA
	shared := false

	for _, cl := range cels {
		visible, layerOpacity := layers.lookup(cl.layer)
		if !visible {
			continue
		}

		switch cl.kind {
		case CelLinked:
			if cl.link < 0 || cl.link >= index {
				return nil, fmt.Errorf("%w: cel links frame %d from frame %d", ErrFormat, cl.link, index)
			}
			canvas, shared = c.canvases[cl.link], true
			continue
		case CelCompressed:
		default:
			continue
		}

		if cl.img == nil || cl.img.Rect.Empty() {
			continue
		}

		opacity := uint8(int(cl.opacity) * int(layerOpacity) / 255)
		if opacity == 0 {
			continue
		}

		if canvas == nil {
			canvas = image.NewNRGBA(c.bounds)
		} else if shared {
			canvas = cloneNRGBA(canvas)
			shared = false
		}

		r := cl.img.Rect
		if opacity == 255 {
			draw.Draw(canvas, r, cl.img, r.Min, draw.Over)
		} else {
			draw.DrawMask(canvas, r, cl.img, r.Min, &opacityMasks[opacity], image.Point{}, draw.Over)
		}
	}

	if canvas == nil {
		canvas = image.NewNRGBA(c.bounds)
	}
	c.canvases = append(c.canvases, canvas)
	return canvas, nil
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
