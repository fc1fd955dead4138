package asejson

import (
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"path"
	"strings"

	"github.com/setanarut/asesheet/sheet"
)

// ResolvePath returns the path of the sheet image referenced by the manifest
// at manifestPath. Paths starting with '/' are taken from the root of the
// file system, anything else is relative to the manifest's directory.
func ResolvePath(manifestPath, imagePath string) string {
	if strings.HasPrefix(imagePath, "/") {
		return strings.TrimLeft(imagePath, "/")
	}
	return path.Join(path.Dir(manifestPath), imagePath)
}

// Load reads the manifest at manifestPath and the sheet image it references
// from fsys. A non-empty imagePath overrides the manifest's meta.image.
func Load(fsys fs.FS, manifestPath, imagePath string) (*sheet.Sheet, *Manifest, error) {
	mf, err := fsys.Open(manifestPath)
	if err != nil {
		return nil, nil, err
	}
	defer mf.Close()

	m, err := Decode(mf)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", manifestPath, err)
	}

	if imagePath == "" {
		imagePath = m.Meta.Image
	}
	imagePath = ResolvePath(manifestPath, imagePath)

	f, err := fsys.Open(imagePath)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", imagePath, err)
	}
	s, err := New(m, img)
	if err != nil {
		return nil, nil, err
	}
	return s, m, nil
}
