package frames

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Dir reads frames named "<index+1>.<Ext>" from Path.
type Dir struct {
	Path     string
	Ext      string
	Features FeatureParams
}

// NewDir returns a Dir using the default feature detector settings.
func NewDir(path, ext string) Dir {
	return Dir{Path: path, Ext: strings.TrimPrefix(ext, "."), Features: DefaultFeatureParams}
}

// FramePath returns the file path holding frame index.
func (d Dir) FramePath(index int) string {
	return filepath.Join(d.Path, strconv.Itoa(index+1)+"."+d.Ext)
}

// Load decodes frame index and computes its histogram. When withFeatures is
// set the grayscale buffer and corner features are computed too.
func (d Dir) Load(index int, withFeatures bool) (Decoded, error) {
	path := d.FramePath(index)
	if index < 0 {
		return Decoded{}, &LoadError{Index: index, Path: path, Err: errors.New("negative frame index")}
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return Decoded{}, &LoadError{Index: index, Path: path, Err: err}
	}
	return decode(index, img, withFeatures, d.Features), nil
}

func decode(index int, img image.Image, withFeatures bool, params FeatureParams) Decoded {
	decoded := Decoded{Frame: Frame{Index: index, Histogram: ComputeHistogram(img)}}
	if withFeatures {
		decoded.Gray = ToGray(img)
		decoded.Features = DetectFeatures(decoded.Gray, params)
	}
	return decoded
}

// Indexes lists the 0-based frame indexes present in the directory, sorted.
func (d Dir) Indexes() ([]int, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read frames dir: %w", err)
	}
	suffix := "." + d.Ext
	indexes := make([]int, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, suffix))
		if err != nil || n < 1 {
			continue
		}
		indexes = append(indexes, n-1)
	}
	sort.Ints(indexes)
	return indexes, nil
}
