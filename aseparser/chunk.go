package aseparser

import (
	"fmt"
	"image"
	"image/color"

	"github.com/setanarut/asesheet/sheet"
)

// Chunk types.
const (
	chunkOldPalette    = 0x0004
	chunkOldPalette64  = 0x0011
	chunkLayer         = 0x2004
	chunkCel           = 0x2005
	chunkCelExtra      = 0x2006
	chunkColorProfile  = 0x2007
	chunkExternalFiles = 0x2008
	chunkMask          = 0x2016
	chunkPath          = 0x2017
	chunkTags          = 0x2018
	chunkPalette       = 0x2019
	chunkUserData      = 0x2020
	chunkSlice         = 0x2022
	chunkTileset       = 0x2023
)

const chunkHeaderSize = 6

// CelType is the kind of pixel payload a cel carries.
type CelType uint16

const (
	CelRaw CelType = iota
	CelLinked
	CelCompressed
	CelCompressedTilemap
)

type cel struct {
	layer   int
	x, y    int
	opacity uint8
	kind    CelType
	link    int // CelLinked
	w, h    int // CelCompressed
	data    []byte
	// palette as it stood when the cel chunk was read, indexed only
	palette *Palette
	img     *image.NRGBA
	offset  int
}

// chunk is one of *layerChunk, *celChunk, *colorProfileChunk, *tagsChunk,
// *paletteChunk or unknownChunk.
type chunk interface {
	chunkType() uint16
}

type layerChunk struct{ Layer }

type celChunk struct{ cel }

type colorProfileChunk struct{ ColorProfile }

type tagsChunk struct{ tags []Tag }

type paletteChunk struct {
	size   int
	first  int
	colors []color.NRGBA
}

// unknownChunk is any chunk type the decoder skips.
type unknownChunk uint16

func (*layerChunk) chunkType() uint16        { return chunkLayer }
func (*celChunk) chunkType() uint16          { return chunkCel }
func (*colorProfileChunk) chunkType() uint16 { return chunkColorProfile }
func (*tagsChunk) chunkType() uint16         { return chunkTags }
func (*paletteChunk) chunkType() uint16      { return chunkPalette }
func (t unknownChunk) chunkType() uint16     { return uint16(t) }

// decodeChunk reads one chunk. On success c is left exactly at the end of
// the chunk as declared by its size field, however much of the payload was
// understood.
func decodeChunk(c *cursor, h *Header) (chunk, error) {
	start := c.offset()
	size := int(c.u32())
	typ := c.u16()
	if c.err != nil {
		return nil, c.err
	}
	if size < chunkHeaderSize {
		return nil, fmt.Errorf("%w: chunk 0x%04X at offset %d has size %d", ErrFormat, typ, start, size)
	}

	p := c.sub(size - chunkHeaderSize)
	if c.err != nil {
		return nil, c.err
	}

	var (
		ch  chunk
		err error
	)
	switch typ {
	case chunkLayer:
		ch, err = decodeLayer(p)
	case chunkCel:
		ch, err = decodeCel(p)
	case chunkColorProfile:
		ch, err = decodeColorProfile(p)
	case chunkTags:
		ch, err = decodeTags(p, h)
	case chunkPalette:
		ch, err = decodePalette(p)
	default:
		ch = unknownChunk(typ)
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Layer Chunk (0x2004)
func decodeLayer(p *cursor) (*layerChunk, error) {
	var l Layer
	l.Flags = LayerFlags(p.u16())
	l.Type = LayerType(p.u16())
	l.ChildLevel = int(p.u16())
	p.skip(4) // default width and height, ignored
	l.BlendMode = p.u16()
	l.Opacity = p.u8()
	p.skip(3)
	l.Name = p.str()
	if p.err != nil {
		return nil, p.err
	}
	return &layerChunk{l}, nil
}

// Cel Chunk (0x2005)
func decodeCel(p *cursor) (*celChunk, error) {
	ch := &celChunk{cel{offset: p.offset()}}
	cl := &ch.cel
	cl.layer = int(p.u16())
	cl.x = int(p.i16())
	cl.y = int(p.i16())
	cl.opacity = p.u8()
	cl.kind = CelType(p.u16())
	p.i16() // z-index
	p.skip(5)
	if p.err != nil {
		return nil, p.err
	}

	switch cl.kind {
	case CelRaw:
		return nil, fmt.Errorf("%w: raw cel on layer %d", ErrUnsupported, cl.layer)
	case CelLinked:
		cl.link = int(p.u16())
	case CelCompressed:
		cl.w = int(p.u16())
		cl.h = int(p.u16())
		cl.data = p.bytes(p.len())
	}
	// Tilemap cels and unknown cel types carry nothing the compositor draws.

	if p.err != nil {
		return nil, p.err
	}
	return ch, nil
}

// Color Profile Chunk (0x2007)
func decodeColorProfile(p *cursor) (*colorProfileChunk, error) {
	var cp ColorProfile
	cp.Type = p.u16()
	cp.Flags = p.u16()
	cp.Gamma = p.fixed()
	p.skip(8)
	// ICC data follows for type 2 and is skipped with the rest of the chunk.
	if p.err != nil {
		return nil, p.err
	}
	return &colorProfileChunk{cp}, nil
}

// Tags Chunk (0x2018)
func decodeTags(p *cursor, h *Header) (*tagsChunk, error) {
	const minTagSize = 19

	n := int(p.u16())
	p.skip(8)
	if p.err != nil {
		return nil, p.err
	}

	tags := make([]Tag, 0, min(n, p.len()/minTagSize))
	for range n {
		var t Tag
		t.From = int(p.u16())
		t.To = int(p.u16())
		dir := p.u8()
		t.Repeat = p.u16()
		p.skip(6)
		r, g, b := p.u8(), p.u8(), p.u8()
		t.Color = color.NRGBA{R: r, G: g, B: b, A: 255}
		p.skip(1)
		t.Name = p.str()
		if p.err != nil {
			return nil, p.err
		}

		if dir > uint8(sheet.PingPongReverse) {
			return nil, fmt.Errorf("%w: tag %q has direction %d", ErrFormat, t.Name, dir)
		}
		t.Direction = sheet.Direction(dir)

		if t.From > t.To || t.To >= h.Frames {
			return nil, fmt.Errorf("%w: tag %q range [%d, %d] with %d frames", ErrFormat, t.Name, t.From, t.To, h.Frames)
		}
		tags = append(tags, t)
	}
	return &tagsChunk{tags}, nil
}

// Palette Chunk (0x2019)
func decodePalette(p *cursor) (*paletteChunk, error) {
	const minEntrySize = 6

	pc := &paletteChunk{size: int(p.u32())}
	first := int(p.u32())
	last := int(p.u32())
	p.skip(8)
	if p.err != nil {
		return nil, p.err
	}
	if first > last {
		return nil, fmt.Errorf("%w: palette range [%d, %d]", ErrFormat, first, last)
	}
	n := last - first + 1
	if n > p.len()/minEntrySize {
		return nil, fmt.Errorf("%w: %d palette entries do not fit in %d bytes", ErrFormat, n, p.len())
	}

	pc.first = first
	pc.colors = make([]color.NRGBA, n)
	for i := range pc.colors {
		flags := p.u16()
		r, g, b, a := p.u8(), p.u8(), p.u8(), p.u8()
		pc.colors[i] = color.NRGBA{R: r, G: g, B: b, A: a}
		if flags&1 != 0 {
			p.skip(int(p.u16())) // name
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return pc, nil
}

// apply writes the chunk colors into pal. Indices past 255 cannot be
// referenced by 8 bit pixels and are dropped.
func (pc *paletteChunk) apply(pal *Palette) {
	for i, c := range pc.colors {
		if idx := pc.first + i; idx < len(pal) {
			pal[idx] = c
		}
	}
}
