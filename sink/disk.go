package sink

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/Zereker/framerelay"
	"github.com/Zereker/framerelay/codec"
)

// Formats supported by Disk.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatRaw  = "raw"
)

// Disk writes every presented frame to a file, one directory per connection.
//
// File names are frame_{n:06d}.{ext} where n counts frames of that connection.
// With a frame limit, Present returns framerelay.ErrQuit once the limit is
// reached, which ends the stream like a quit key would.
type Disk struct {
	dir         string
	format      string
	jpegQuality int
	maxFrames   uint64

	mu    sync.Mutex
	views map[string]uint64

	saved   atomic.Uint64
	dropped atomic.Uint64
}

var _ framerelay.FrameSink = (*Disk)(nil)

// NewDisk creates dir and returns a sink writing format files into it.
// Format is "jpeg", "png" or "raw"; raw writes Frame.Data unchanged.
// A maxFrames of zero disables the per-connection limit.
func NewDisk(dir, format string, jpegQuality int, maxFrames uint64) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create output directory")
	}

	switch format {
	case FormatJPEG, FormatPNG, FormatRaw:
	default:
		return nil, errors.Errorf("unsupported format: %s (must be jpeg, png or raw)", format)
	}

	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = codec.DefaultJPEGQuality
	}

	return &Disk{
		dir:         dir,
		format:      format,
		jpegQuality: jpegQuality,
		maxFrames:   maxFrames,
		views:       make(map[string]uint64),
	}, nil
}

// ViewDir returns the directory frames of connID are written to.
func (d *Disk) ViewDir(connID string) string {
	return filepath.Join(d.dir, viewName(connID))
}

// Present writes frame to the connection's directory.
func (d *Disk) Present(connID string, frame *framerelay.Frame) error {
	d.mu.Lock()
	n, open := d.views[connID]
	d.views[connID] = n + 1
	d.mu.Unlock()

	dir := d.ViewDir(connID)
	if !open {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			d.dropped.Add(1)
			return errors.Wrap(err, "create view directory")
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("frame_%06d.%s", n, d.ext()))
	if err := d.write(path, frame); err != nil {
		d.dropped.Add(1)
		return err
	}
	d.saved.Add(1)

	if d.maxFrames > 0 && n+1 >= d.maxFrames {
		return framerelay.ErrQuit
	}
	return nil
}

// ReleaseView forgets the connection's frame counter.
func (d *Disk) ReleaseView(connID string) {
	d.mu.Lock()
	delete(d.views, connID)
	d.mu.Unlock()
}

// Stats returns how many frames were saved and dropped.
func (d *Disk) Stats() (saved, dropped uint64) {
	return d.saved.Load(), d.dropped.Load()
}

func (d *Disk) ext() string {
	switch d.format {
	case FormatJPEG:
		return "jpg"
	case FormatPNG:
		return "png"
	default:
		return "bin"
	}
}

func (d *Disk) write(path string, frame *framerelay.Frame) error {
	if d.format == FormatRaw {
		return errors.Wrap(os.WriteFile(path, frame.Data, 0o644), "write frame")
	}

	img, err := codec.ToImage(frame)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create frame file")
	}
	defer file.Close()

	switch d.format {
	case FormatPNG:
		err = png.Encode(file, img)
	default:
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: d.jpegQuality})
	}
	return errors.Wrapf(err, "%s encode", d.format)
}

// viewName turns a peer address into a directory name.
func viewName(connID string) string {
	return strings.NewReplacer(":", "_", "/", "_", "[", "", "]", "").Replace(connID)
}
