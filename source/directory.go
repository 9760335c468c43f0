package source

import (
	"context"
	"image"
	_ "image/jpeg" // register decoders for image.Decode
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Zereker/framerelay"
	"github.com/Zereker/framerelay/codec"
)

// ErrNoImages is returned when a directory holds no supported image files.
var ErrNoImages = errors.New("no images found")

// Directory replays the JPEG and PNG files of a directory in lexical order.
type Directory struct {
	files []string
	loops int

	mu        sync.Mutex
	index     int
	iteration int
	seq       uint64
	closed    bool
}

var _ framerelay.FrameSource = (*Directory)(nil)

// NewDirectory lists the images in dir. The files are played loops times;
// zero loops replays them forever.
func NewDirectory(dir string, loops int) (*Directory, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read dir %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.Wrap(ErrNoImages, dir)
	}
	sort.Strings(files)

	return &Directory{files: files, loops: loops}, nil
}

// Len returns the number of images in one pass.
func (d *Directory) Len() int {
	return len(d.files)
}

// NextFrame decodes the next image.
func (d *Directory) NextFrame(ctx context.Context) (*framerelay.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	if d.index == len(d.files) {
		d.iteration++
		if d.loops > 0 && d.iteration >= d.loops {
			d.mu.Unlock()
			return nil, io.EOF
		}
		d.index = 0
	}
	path := d.files[d.index]
	d.index++
	seq := d.seq
	d.seq++
	d.mu.Unlock()

	frame, err := load(path)
	if err != nil {
		return nil, err
	}
	frame.Seq = seq
	frame.Timestamp = time.Now()
	return frame, nil
}

// Close stops the source.
func (d *Directory) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func load(path string) (*framerelay.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", filepath.Base(path))
	}
	return codec.FromImage(img), nil
}
