package source

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestPattern_Defaults(t *testing.T) {
	p := NewPattern(0, 0, 0)

	frame, err := p.NextFrame(context.Background())
	if err != nil {
		t.Fatalf("NextFrame failed: %v", err)
	}
	if frame.Width != DefaultWidth || frame.Height != DefaultHeight {
		t.Errorf("dimensions = %dx%d, want %dx%d", frame.Width, frame.Height, DefaultWidth, DefaultHeight)
	}
	if len(frame.Data) != DefaultWidth*DefaultHeight*3 {
		t.Errorf("data size = %d", len(frame.Data))
	}
}

func TestPattern_Limit(t *testing.T) {
	p := NewPattern(8, 4, 3)
	ctx := context.Background()

	for i := uint64(0); i < 3; i++ {
		frame, err := p.NextFrame(ctx)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if frame.Seq != i {
			t.Errorf("Seq = %d, want %d", frame.Seq, i)
		}
		if frame.Timestamp.IsZero() {
			t.Error("Timestamp not set")
		}
	}

	if _, err := p.NextFrame(ctx); err != io.EOF {
		t.Errorf("expected io.EOF after limit, got %v", err)
	}
}

func TestPattern_FramesDiffer(t *testing.T) {
	p := NewPattern(8, 4, 0)
	ctx := context.Background()

	a, _ := p.NextFrame(ctx)
	b, _ := p.NextFrame(ctx)
	if string(a.Data) == string(b.Data) {
		t.Error("consecutive frames should differ")
	}
}

func TestPattern_Closed(t *testing.T) {
	p := NewPattern(8, 4, 0)
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := p.NextFrame(context.Background()); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestPattern_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewPattern(8, 4, 0).NextFrame(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestDirectory_Loops(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), color.RGBA{0, 255, 0, 255})
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{255, 0, 0, 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	d, err := NewDirectory(dir, 2)
	if err != nil {
		t.Fatalf("NewDirectory failed: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("Len = %d, want 2", d.Len())
	}

	ctx := context.Background()
	wantRed := []byte{255, 0, 255, 0}
	for i := 0; i < 4; i++ {
		frame, err := d.NextFrame(ctx)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if frame.Width != 4 || frame.Height != 2 {
			t.Errorf("dimensions = %dx%d, want 4x2", frame.Width, frame.Height)
		}
		if frame.Seq != uint64(i) {
			t.Errorf("Seq = %d, want %d", frame.Seq, i)
		}
		// Lexical order: a.png (red) before b.png (green).
		if frame.Data[0] != wantRed[i] {
			t.Errorf("frame %d red channel = %d, want %d", i, frame.Data[0], wantRed[i])
		}
	}

	if _, err := d.NextFrame(ctx); err != io.EOF {
		t.Errorf("expected io.EOF after two passes, got %v", err)
	}
}

func TestDirectory_Forever(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "only.png"), color.RGBA{1, 2, 3, 255})

	d, err := NewDirectory(dir, 0)
	if err != nil {
		t.Fatalf("NewDirectory failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		if _, err := d.NextFrame(context.Background()); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}

	d.Close()
	if _, err := d.NextFrame(context.Background()); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestDirectory_NoImages(t *testing.T) {
	if _, err := NewDirectory(t.TempDir(), 1); !errors.Is(err, ErrNoImages) {
		t.Errorf("expected ErrNoImages, got %v", err)
	}
	if _, err := NewDirectory(filepath.Join(t.TempDir(), "missing"), 1); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestDirectory_CorruptImage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := NewDirectory(dir, 1)
	if err != nil {
		t.Fatalf("NewDirectory failed: %v", err)
	}
	if _, err := d.NextFrame(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}
