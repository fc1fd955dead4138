package aseparser

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/sync/errgroup"

	"github.com/setanarut/asesheet/sheet"
)

const (
	headerSize      = 128
	frameHeaderSize = 16
	fileMagic       = 0xA5E0
	frameMagic      = 0xF1FA
)

// Option configures Parse.
type Option func(*config)

type config struct {
	workers int
}

// WithWorkers inflates up to n compressed cels of a frame concurrently.
// Values below 2 keep inflation on the calling goroutine.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// parser is the state of one document parse. Layers and palette entries
// accumulate across frames and are never rolled back.
type parser struct {
	cfg     config
	header  Header
	layers  layerTable
	palette Palette
	profile *ColorProfile
	tags    []Tag
	comp    *compositor
	frames  []sheet.Frame
}

// Parse decodes a complete Aseprite file. It returns either a fully built
// document or a *DecodeError.
func Parse(data []byte, opts ...Option) (*Document, error) {
	p := &parser{cfg: config{workers: 1}}
	for _, opt := range opts {
		opt(&p.cfg)
	}

	c, err := p.open(data)
	if err != nil {
		return nil, err
	}

	p.comp = newCompositor(&p.header)
	p.frames = make([]sheet.Frame, 0, p.header.Frames)
	for i := range p.header.Frames {
		if err := p.readFrame(c, i); err != nil {
			return nil, err
		}
	}

	return p.document(), nil
}

// open checks the magic number, then reads the header and bounds the
// cursor to the declared file size.
func (p *parser) open(data []byte) (*cursor, error) {
	if len(data) < 6 {
		return nil, &DecodeError{Stage: StageHeader, Frame: -1, Err: fmt.Errorf("%w: %d bytes", ErrOutOfBounds, len(data))}
	}
	if magic := binary.LittleEndian.Uint16(data[4:]); magic != fileMagic {
		return nil, &DecodeError{Stage: StageHeader, Frame: -1, Offset: 4, Err: fmt.Errorf("%w: 0x%04X", ErrInvalidMagic, magic)}
	}

	c := newCursor(data)
	h, err := readHeader(c)
	if err != nil {
		return nil, &DecodeError{Stage: StageHeader, Frame: -1, Offset: c.offset(), Err: err}
	}
	if h.FileSize < headerSize {
		return nil, &DecodeError{Stage: StageHeader, Frame: -1, Err: fmt.Errorf("%w: file size %d", ErrFormat, h.FileSize)}
	}
	if h.FileSize > len(data) {
		return nil, &DecodeError{Stage: StageHeader, Frame: -1, Err: fmt.Errorf("%w: file size %d, have %d bytes", ErrOutOfBounds, h.FileSize, len(data))}
	}
	p.header = h

	// Frames must fit in the size the header declares.
	c.buf = data[:h.FileSize]
	return c, nil
}

// readHeader reads the 128 byte file header. The magic number is not checked.
func readHeader(c *cursor) (Header, error) {
	var h Header
	h.FileSize = int(c.u32())
	c.u16() // magic
	h.Frames = int(c.u16())
	h.Width = int(c.u16())
	h.Height = int(c.u16())
	h.ColorDepth = ColorDepth(c.u16())
	h.Flags = c.u32()
	h.Speed = c.u16()
	c.skip(8)
	h.Transparent = c.u8()
	c.skip(3)
	h.NumColors = int(c.u16())
	h.PixelWidth = c.u8()
	h.PixelHeight = c.u8()
	h.GridX = int(c.i16())
	h.GridY = int(c.i16())
	h.GridWidth = int(c.u16())
	h.GridHeight = int(c.u16())
	c.skip(84)
	if c.err != nil {
		return Header{}, c.err
	}
	if !h.ColorDepth.valid() {
		return Header{}, fmt.Errorf("%w: invalid color depth %d", ErrFormat, h.ColorDepth)
	}
	return h, nil
}

func (p *parser) readFrame(c *cursor, index int) error {
	start := c.offset()
	fail := func(stage string, offset int, err error) error {
		return &DecodeError{Stage: stage, Frame: index, Offset: offset, Err: err}
	}

	size := int(c.u32())
	magic := c.u16()
	oldChunks := c.u16()
	durationMS := c.u16()
	c.skip(2)
	newChunks := c.u32()
	if c.err != nil {
		return fail(StageFrame, start, c.err)
	}
	if magic != frameMagic {
		return fail(StageFrame, start+4, fmt.Errorf("%w: frame magic 0x%04X", ErrInvalidMagic, magic))
	}
	if size < frameHeaderSize {
		return fail(StageFrame, start, fmt.Errorf("%w: frame size %d", ErrFormat, size))
	}

	fc := c.sub(size - frameHeaderSize)
	if c.err != nil {
		return fail(StageFrame, start, c.err)
	}

	nchunks := int(newChunks)
	if nchunks == 0 {
		nchunks = int(oldChunks)
	}

	var (
		cels []*cel
		pal  *Palette // shared by cels until the next palette chunk
	)
	for range nchunks {
		off := fc.offset()
		ch, err := decodeChunk(fc, &p.header)
		if err != nil {
			return fail(StageChunk, off, err)
		}

		switch ch := ch.(type) {
		case *layerChunk:
			p.layers.add(ch.Layer)
		case *celChunk:
			if p.header.ColorDepth == Indexed && ch.kind == CelCompressed {
				if pal == nil {
					snap := p.palette
					pal = &snap
				}
				ch.palette = pal
			}
			cels = append(cels, &ch.cel)
		case *paletteChunk:
			ch.apply(&p.palette)
			pal = nil
		case *tagsChunk:
			p.tags = append(p.tags, ch.tags...)
		case *colorProfileChunk:
			cp := ch.ColorProfile
			p.profile = &cp
		}
	}

	if err := p.decodeCels(cels); err != nil {
		var off int
		var ce *celError
		if errors.As(err, &ce) {
			off, err = ce.offset, ce.err
		}
		return fail(StageCel, off, err)
	}

	canvas, err := p.comp.compositeFrame(index, cels, &p.layers)
	if err != nil {
		return fail(StageComposite, start, err)
	}

	p.frames = append(p.frames, sheet.Frame{
		Index:    index,
		Image:    canvas,
		Duration: time.Duration(durationMS) * time.Millisecond,
	})
	return nil
}

type celError struct {
	offset int
	err    error
}

func (e *celError) Error() string { return e.err.Error() }

// decodeCels inflates and converts the compressed cels of one frame. Indexed
// cels use the palette snapshot taken when their chunk was read.
func (p *parser) decodeCels(cels []*cel) error {
	decode := func(cl *cel) error {
		if err := p.decodeCel(cl); err != nil {
			return &celError{offset: cl.offset, err: err}
		}
		return nil
	}

	if p.cfg.workers < 2 {
		for _, cl := range cels {
			if cl.kind != CelCompressed {
				continue
			}
			if err := decode(cl); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.workers)
	for _, cl := range cels {
		if cl.kind != CelCompressed {
			continue
		}
		g.Go(func() error { return decode(cl) })
	}
	return g.Wait()
}

func (p *parser) decodeCel(cl *cel) error {
	depth := p.header.ColorDepth
	raw, err := inflate(cl.data, cl.w*cl.h*depth.bytesPerPixel())
	if err != nil {
		return err
	}
	pal := cl.palette
	if pal == nil {
		pal = &p.palette
	}
	pix, err := toNRGBA(raw, depth, pal, p.header.Transparent)
	if err != nil {
		return err
	}
	cl.img = &image.NRGBA{
		Pix:    pix,
		Stride: cl.w * 4,
		Rect:   image.Rect(cl.x, cl.y, cl.x+cl.w, cl.y+cl.h),
	}
	cl.data, cl.palette = nil, nil
	return nil
}

// inflate decompresses a zlib stream that must hold exactly want bytes.
func inflate(data []byte, want int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(io.LimitReader(zr, int64(want)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(raw) != want {
		return nil, fmt.Errorf("%w: cel decompressed to %d bytes, want %d", ErrFormat, len(raw), want)
	}
	return raw, nil
}

func (p *parser) document() *Document {
	s := sheet.New(p.header.Width, p.header.Height, p.frames)
	for _, t := range p.tags {
		// Ranges were checked against the header when the tag was read.
		c, err := s.NewClip(t.Name, t.From, t.To, t.Direction, t.Repeat)
		if err != nil {
			continue
		}
		s.AddClip(c)
	}

	return &Document{
		Header:  p.header,
		sheet:   s,
		layers:  p.layers.layers,
		tags:    p.tags,
		palette: p.palette,
		profile: p.profile,
	}
}
