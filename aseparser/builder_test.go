package aseparser

import (
	"bytes"
	"encoding/binary"
	"image/color"

	"github.com/klauspost/compress/zlib"
)

// docBuilder writes small Aseprite files for tests.
type docBuilder struct {
	w, h        int
	depth       ColorDepth
	flags       uint32
	transparent uint8
	frames      []*frameBuilder
}

type frameBuilder struct {
	duration uint16
	chunks   [][]byte
	oldCount bool
}

func newDoc(w, h int, depth ColorDepth) *docBuilder {
	return &docBuilder{w: w, h: h, depth: depth, flags: 1}
}

func (b *docBuilder) frame(duration uint16) *frameBuilder {
	f := &frameBuilder{duration: duration}
	b.frames = append(b.frames, f)
	return f
}

func le16(b []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(b, v) }
func le32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }

func appendString(b []byte, s string) []byte {
	b = le16(b, uint16(len(s)))
	return append(b, s...)
}

func compress(pix []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(pix); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func (f *frameBuilder) chunk(typ uint16, payload []byte) *frameBuilder {
	raw := le32(nil, uint32(len(payload)+chunkHeaderSize))
	raw = le16(raw, typ)
	f.chunks = append(f.chunks, append(raw, payload...))
	return f
}

func (f *frameBuilder) layer(name string, flags LayerFlags, opacity uint8) *frameBuilder {
	return f.layerOf(name, flags, LayerNormal, 0, opacity)
}

func (f *frameBuilder) layerOf(name string, flags LayerFlags, typ LayerType, level int, opacity uint8) *frameBuilder {
	p := le16(nil, uint16(flags))
	p = le16(p, uint16(typ))
	p = le16(p, uint16(level))
	p = le16(p, 0)
	p = le16(p, 0)
	p = le16(p, 0) // normal blend
	p = append(p, opacity, 0, 0, 0)
	p = appendString(p, name)
	return f.chunk(chunkLayer, p)
}

func celPrefix(layer, x, y int, opacity uint8, kind CelType) []byte {
	p := le16(nil, uint16(layer))
	p = le16(p, uint16(int16(x)))
	p = le16(p, uint16(int16(y)))
	p = append(p, opacity)
	p = le16(p, uint16(kind))
	p = le16(p, 0) // z-index
	return append(p, 0, 0, 0, 0, 0)
}

// cel adds a compressed cel holding pix in the document color depth.
func (f *frameBuilder) cel(layer, x, y int, opacity uint8, w, h int, pix []byte) *frameBuilder {
	return f.celData(layer, x, y, opacity, w, h, compress(pix))
}

func (f *frameBuilder) celData(layer, x, y int, opacity uint8, w, h int, data []byte) *frameBuilder {
	p := celPrefix(layer, x, y, opacity, CelCompressed)
	p = le16(p, uint16(w))
	p = le16(p, uint16(h))
	return f.chunk(chunkCel, append(p, data...))
}

func (f *frameBuilder) rawCel(layer, w, h int, pix []byte) *frameBuilder {
	p := celPrefix(layer, 0, 0, 255, CelRaw)
	p = le16(p, uint16(w))
	p = le16(p, uint16(h))
	return f.chunk(chunkCel, append(p, pix...))
}

func (f *frameBuilder) linked(layer, frame int) *frameBuilder {
	p := celPrefix(layer, 0, 0, 255, CelLinked)
	return f.chunk(chunkCel, le16(p, uint16(frame)))
}

func (f *frameBuilder) tilemapCel(layer int) *frameBuilder {
	p := celPrefix(layer, 0, 0, 255, CelCompressedTilemap)
	p = le16(p, 1)
	p = le16(p, 1)
	p = le16(p, 32)
	return f.chunk(chunkCel, append(p, make([]byte, 32)...))
}

func (f *frameBuilder) tags(tags ...Tag) *frameBuilder {
	p := le16(nil, uint16(len(tags)))
	p = append(p, make([]byte, 8)...)
	for _, t := range tags {
		p = le16(p, uint16(t.From))
		p = le16(p, uint16(t.To))
		p = append(p, byte(t.Direction))
		p = le16(p, t.Repeat)
		p = append(p, make([]byte, 6)...)
		p = append(p, t.Color.R, t.Color.G, t.Color.B, 0)
		p = appendString(p, t.Name)
	}
	return f.chunk(chunkTags, p)
}

// palette sets entries starting at first. Every other entry carries a name.
func (f *frameBuilder) palette(first int, colors ...color.NRGBA) *frameBuilder {
	last := first + len(colors) - 1
	p := le32(nil, uint32(last+1))
	p = le32(p, uint32(first))
	p = le32(p, uint32(last))
	p = append(p, make([]byte, 8)...)
	for i, c := range colors {
		if i%2 == 1 {
			p = le16(p, 1)
			p = append(p, c.R, c.G, c.B, c.A)
			p = appendString(p, "named")
			continue
		}
		p = le16(p, 0)
		p = append(p, c.R, c.G, c.B, c.A)
	}
	return f.chunk(chunkPalette, p)
}

func (f *frameBuilder) colorProfile(typ uint16, gamma float64) *frameBuilder {
	p := le16(nil, typ)
	p = le16(p, 1)
	p = le32(p, uint32(int32(gamma*65536)))
	return f.chunk(chunkColorProfile, append(p, make([]byte, 8)...))
}

func (b *docBuilder) bytes() []byte {
	var body []byte
	for _, f := range b.frames {
		var chunks []byte
		for _, c := range f.chunks {
			chunks = append(chunks, c...)
		}
		n := len(f.chunks)
		fr := le32(nil, uint32(frameHeaderSize+len(chunks)))
		fr = le16(fr, frameMagic)
		fr = le16(fr, uint16(min(n, 0xFFFF)))
		fr = le16(fr, f.duration)
		fr = le16(fr, 0)
		if f.oldCount {
			fr = le32(fr, 0)
		} else {
			fr = le32(fr, uint32(n))
		}
		body = append(body, fr...)
		body = append(body, chunks...)
	}

	hdr := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(hdr[0:], uint32(headerSize+len(body)))
	binary.LittleEndian.PutUint16(hdr[4:], fileMagic)
	binary.LittleEndian.PutUint16(hdr[6:], uint16(len(b.frames)))
	binary.LittleEndian.PutUint16(hdr[8:], uint16(b.w))
	binary.LittleEndian.PutUint16(hdr[10:], uint16(b.h))
	binary.LittleEndian.PutUint16(hdr[12:], uint16(b.depth))
	binary.LittleEndian.PutUint32(hdr[14:], b.flags)
	binary.LittleEndian.PutUint16(hdr[18:], 100)
	hdr[28] = b.transparent
	binary.LittleEndian.PutUint16(hdr[32:], 256)
	hdr[34], hdr[35] = 1, 1
	binary.LittleEndian.PutUint16(hdr[40:], 16)
	binary.LittleEndian.PutUint16(hdr[42:], 16)

	return append(hdr, body...)
}

// solid returns w*h truecolor pixels of c.
func solid(w, h int, c color.NRGBA) []byte {
	pix := make([]byte, 0, w*h*4)
	for range w * h {
		pix = append(pix, c.R, c.G, c.B, c.A)
	}
	return pix
}
