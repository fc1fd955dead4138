// Package aseplayer plays Aseprite animations with Ebitengine.
//
// Sprite sheets come from binary .ase/.aseprite files (package aseparser)
// or from Aseprite's JSON export (package asejson).
package aseplayer

import (
	"fmt"
	"image"
	"io/fs"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/setanarut/asesheet/asejson"
	"github.com/setanarut/asesheet/aseparser"
	"github.com/setanarut/asesheet/sheet"
	"github.com/setanarut/v"
)

const Delta = time.Second / 60

const debugFormat = "tag: %q\nrepeat: %d\nended: %v\nframe: %d\nelapsed: %v\npaused: %v"

// AnimPlayer plays and manages Aseprite tag animations.
type AnimPlayer struct {

	// The frame of the animation currently being played
	CurrentFrame *Frame

	// The animation currently being played
	CurrentAnimation *Animation

	// Animations accessible by their Aseprite tag names. The empty name
	// holds every frame of the sprite.
	Animations map[string]*Animation

	// Sprite atlas containing all frames
	Atlas *ebiten.Image

	// If true, the animation is paused
	Paused bool

	frameElapsedTime time.Duration
	frameIndex       int
	isEnded          bool
	repeatCount      uint16
}

func (a *AnimPlayer) Update(dt time.Duration) {
	if a.Paused || a.isEnded {
		return
	}
	activeAnim := a.CurrentAnimation
	a.frameElapsedTime += dt
	if a.frameElapsedTime >= activeAnim.Frames[a.frameIndex].Duration {
		a.frameElapsedTime = 0
		a.frameIndex++
		if a.frameIndex >= len(activeAnim.Frames) {
			if activeAnim.Repeat == 0 {
				a.frameIndex = 0
			} else {
				a.repeatCount++
				if a.repeatCount >= activeAnim.Repeat {
					a.isEnded = true
					a.frameIndex = len(activeAnim.Frames) - 1
					a.CurrentFrame = &activeAnim.Frames[a.frameIndex]
					return
				}
				a.frameIndex = 0
			}
		}
	}
	a.CurrentFrame = &activeAnim.Frames[a.frameIndex]
}

// If Animation.Repeat is not zero, it returns true when the animation ends. If it is zero, it is always false.
func (a *AnimPlayer) IsEnded() bool {
	return a.isEnded
}

// Play rewinds and plays the animation. Unknown tags return sheet.ErrNotFound
// and leave the current animation playing.
func (a *AnimPlayer) Play(tag string) error {
	anim, ok := a.Animations[tag]
	if !ok {
		return fmt.Errorf("%w: %q", sheet.ErrNotFound, tag)
	}
	a.CurrentAnimation = anim
	a.Rewind()
	return nil
}

// PlayIfNotCurrent rewinds and plays the animation with the given tag if it's not already playing
func (a *AnimPlayer) PlayIfNotCurrent(tag string) error {
	if tag != a.CurrentAnimation.Tag {
		return a.Play(tag)
	}
	return nil
}

// Rewinds animation
func (a *AnimPlayer) Rewind() {
	a.frameIndex = 0
	a.frameElapsedTime = 0
	a.CurrentFrame = &a.CurrentAnimation.Frames[0]
	a.isEnded = false
	a.repeatCount = 0
}

func (a *AnimPlayer) String() string {
	return fmt.Sprintf(debugFormat, a.CurrentAnimation.Tag,
		a.repeatCount,
		a.IsEnded(),
		a.frameIndex,
		a.frameElapsedTime,
		a.Paused)
}

// Frame is one playable frame.
type Frame struct {
	Image    *ebiten.Image
	Duration time.Duration
	// Pivot is the position of Image inside the untrimmed sprite bounds.
	Pivot v.Vec
}

// Bounds returns the bounds of the frame image in the atlas.
func (f *Frame) Bounds() image.Rectangle {
	return f.Image.Bounds()
}

// Animation for AnimPlayer
type Animation struct {

	// The animation tag name is identical to the Aseprite file
	Tag string

	// Animation frames for one cycle, with reverse and ping-pong applied
	Frames []Frame

	// Strategy is the playback strategy of the tag
	Strategy sheet.Strategy

	// Repeat specifies how many times the animation should loop.
	// A value of 0 means infinite looping.
	Repeat uint16
}

// NewAnimPlayer uploads the frames of s to an atlas and builds an animation
// for every clip. initial names the animation to start with; the empty name
// plays every frame.
func NewAnimPlayer(s *sheet.Sheet, initial string) (*AnimPlayer, error) {
	if len(s.Frames) == 0 {
		return nil, fmt.Errorf("aseplayer: sprite sheet has no frames")
	}

	atlas, cells := s.Atlas()
	ap := &AnimPlayer{
		Animations: make(map[string]*Animation),
		Atlas:      ebiten.NewImageFromImage(atlas),
	}

	// One sub image per sheet frame, shared by every clip that uses it.
	images := make([]*ebiten.Image, len(s.Frames))
	for i, f := range s.Frames {
		r := image.Rectangle{Max: image.Pt(f.Width(), f.Height())}
		r = r.Add(cells[i].Min).Add(f.Offset)
		images[i] = ap.Atlas.SubImage(r).(*ebiten.Image)
	}

	for name, clip := range s.Animations() {
		seq := clip.Sequence()
		frames := make([]Frame, len(seq))
		for i, f := range seq {
			frames[i] = Frame{
				Image:    images[f.Index],
				Duration: f.Duration,
				Pivot:    v.Vec{X: float64(f.Offset.X), Y: float64(f.Offset.Y)},
			}
		}
		ap.Animations[name] = &Animation{
			Tag:      name,
			Frames:   frames,
			Strategy: clip.Strategy,
			Repeat:   clip.Repeat,
		}
	}

	if err := ap.Play(initial); err != nil {
		return nil, err
	}
	return ap, nil
}

// The first Aseprite tag will be assigned as CurrentAnimation. Files
// without tags play every frame.
func NewAnimPlayerFromAsepriteFileSystem(fsys fs.FS, asePath string, opts ...aseparser.Option) (*AnimPlayer, error) {
	doc, err := aseparser.NewDocumentFromFileSystem(fsys, asePath, opts...)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

// The first Aseprite tag will be assigned as CurrentAnimation. Files
// without tags play every frame.
func NewAnimPlayerFromAsepriteFile(asePath string, opts ...aseparser.Option) (*AnimPlayer, error) {
	doc, err := aseparser.NewDocumentFromFile(asePath, opts...)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

// NewAnimPlayerFromJSON loads an Aseprite JSON export and its sheet image.
// The first frame tag will be assigned as CurrentAnimation.
func NewAnimPlayerFromJSON(fsys fs.FS, manifestPath string) (*AnimPlayer, error) {
	s, m, err := asejson.Load(fsys, manifestPath, "")
	if err != nil {
		return nil, err
	}
	initial := ""
	if len(m.Meta.FrameTags) > 0 {
		initial = m.Meta.FrameTags[0].Name
	}
	return NewAnimPlayer(s, initial)
}

func fromDocument(doc *aseparser.Document) (*AnimPlayer, error) {
	initial := ""
	if tags := doc.Tags(); len(tags) > 0 {
		initial = tags[0].Name
	}
	return NewAnimPlayer(doc.Sheet(), initial)
}
