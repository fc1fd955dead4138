// Package sheet holds the decoded output shared by every Aseprite reader:
// an ordered sprite sheet of frames and a set of named animation clips.
package sheet

import (
	"errors"
	"fmt"
	"image"
	"maps"
	"slices"
	"time"
)

var (
	// ErrNotFound is returned when an animation name is not present.
	ErrNotFound = errors.New("sheet: animation not found")
	// ErrRange is returned for frame ranges outside the sheet.
	ErrRange = errors.New("sheet: frame range out of bounds")
)

// Frame is one still image of the sprite sheet.
type Frame struct {
	// Index is the position of the frame in the sheet.
	Index int
	// Image holds the frame pixels. Frames decoded from binary documents
	// are *image.NRGBA and may be shared with other frames; treat them as read-only.
	Image image.Image
	// Duration is how long the frame is displayed.
	Duration time.Duration
	// Offset is where Image sits inside the untrimmed sprite bounds.
	Offset image.Point
}

// Width returns the width of the frame image.
func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height returns the height of the frame image.
func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// Sheet is an ordered sprite sheet plus the animation clips defined over it.
type Sheet struct {
	// Width and Height are the sprite (canvas) size.
	Width, Height int
	// Frames lists every frame in document order.
	Frames []Frame

	clips map[string]*Clip
}

// New returns a sheet over frames. The all-frames clip is registered under
// the empty name.
func New(width, height int, frames []Frame) *Sheet {
	s := &Sheet{
		Width:  width,
		Height: height,
		Frames: frames,
		clips:  make(map[string]*Clip),
	}
	s.clips[""] = &Clip{
		Frames:   slices.Clip(frames),
		Strategy: StrategyLoop,
	}
	return s
}

// Frame returns the frame at index i.
func (s *Sheet) Frame(i int) (Frame, error) {
	if i < 0 || i >= len(s.Frames) {
		return Frame{}, fmt.Errorf("%w: frame %d of %d", ErrRange, i, len(s.Frames))
	}
	return s.Frames[i], nil
}

// NewClip builds a clip over the inclusive frame range [from, to]. The clip
// frames share the sheet's backing array.
func (s *Sheet) NewClip(name string, from, to int, dir Direction, repeat uint16) (*Clip, error) {
	if from < 0 || from > to || to >= len(s.Frames) {
		return nil, fmt.Errorf("%w: %q [%d, %d] with %d frames", ErrRange, name, from, to, len(s.Frames))
	}
	strategy, reverse := dir.Strategy()
	return &Clip{
		Name:     name,
		Frames:   slices.Clip(s.Frames[from : to+1]),
		Strategy: strategy,
		Reverse:  reverse,
		Repeat:   repeat,
	}, nil
}

// AddClip registers c under its name. A later clip with the same name
// replaces the earlier one. The all-frames clip cannot be replaced.
func (s *Sheet) AddClip(c *Clip) {
	if c.Name == "" {
		return
	}
	s.clips[c.Name] = c
}

// Animation returns the clip with the given name. The empty name returns
// the clip containing every frame.
func (s *Sheet) Animation(name string) (*Clip, error) {
	c, ok := s.clips[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c, nil
}

// Animations returns every clip keyed by name, including the all-frames
// clip under "".
func (s *Sheet) Animations() map[string]*Clip {
	return maps.Clone(s.clips)
}

// Names returns the sorted names of the tag clips.
func (s *Sheet) Names() []string {
	names := slices.Sorted(maps.Keys(s.clips))
	if len(names) > 0 && names[0] == "" {
		names = names[1:]
	}
	return names
}
