package asejson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Manifest is the JSON data file Aseprite writes next to an exported sheet.
type Manifest struct {
	// Frames in file order. Hash style exports keep their key order and the
	// key is stored as Filename.
	Frames []FrameEntry `json:"frames"`
	Meta   Meta         `json:"meta"`
}

type FrameEntry struct {
	Filename         string `json:"filename,omitempty"`
	Frame            Rect   `json:"frame"`
	Rotated          bool   `json:"rotated"`
	Trimmed          bool   `json:"trimmed"`
	SpriteSourceSize Rect   `json:"spriteSourceSize"`
	SourceSize       Size   `json:"sourceSize"`
	// Duration in milliseconds.
	Duration int `json:"duration"`
}

type Meta struct {
	App       string      `json:"app,omitempty"`
	Version   string      `json:"version,omitempty"`
	Image     string      `json:"image"`
	Format    string      `json:"format,omitempty"`
	Size      Size        `json:"size"`
	Scale     json.Number `json:"scale,omitempty"`
	FrameTags []FrameTag  `json:"frameTags"`
	Layers    []LayerInfo `json:"layers,omitempty"`
}

type FrameTag struct {
	Name      string `json:"name"`
	From      int    `json:"from"`
	To        int    `json:"to"`
	Direction string `json:"direction"`
	// Repeat is written as a string by Aseprite and is absent for endless tags.
	Repeat json.Number `json:"repeat,omitempty"`
	Color  string      `json:"color,omitempty"`
}

type LayerInfo struct {
	Name      string `json:"name"`
	Opacity   int    `json:"opacity"`
	BlendMode string `json:"blendMode"`
}

type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// UnmarshalJSON accepts frames as an array or as an object keyed by
// filename.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var aux struct {
		Frames json.RawMessage `json:"frames"`
		Meta   Meta            `json:"meta"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	frames, err := decodeFrames(aux.Frames)
	if err != nil {
		return err
	}
	m.Frames = frames
	m.Meta = aux.Meta
	return nil
}

func decodeFrames(raw json.RawMessage) ([]FrameEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		var frames []FrameEntry
		err := json.Unmarshal(raw, &frames)
		return frames, err
	}

	if raw[0] != '{' {
		return nil, fmt.Errorf("frames must be an array or an object")
	}

	// Ordered hash: walk tokens so key order is preserved.
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var frames []FrameEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("frame key %v is not a string", tok)
		}
		var f FrameEntry
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("frame %q: %w", key, err)
		}
		if f.Filename == "" {
			f.Filename = key
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// Decode reads a manifest from r.
func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	return &m, nil
}
