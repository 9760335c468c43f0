package codec

import (
	"bytes"
	"image/jpeg"

	"github.com/pkg/errors"

	"github.com/Zereker/framerelay"
)

// DefaultJPEGQuality is the quality used when none is configured.
const DefaultJPEGQuality = 90

// JPEG compresses RGB frames as baseline JPEG.
type JPEG struct {
	quality int
}

var _ framerelay.Codec = (*JPEG)(nil)

// NewJPEG returns a JPEG codec. Quality is clamped to 1..100; zero selects
// DefaultJPEGQuality.
func NewJPEG(quality int) *JPEG {
	switch {
	case quality == 0:
		quality = DefaultJPEGQuality
	case quality < 1:
		quality = 1
	case quality > 100:
		quality = 100
	}
	return &JPEG{quality: quality}
}

// Quality returns the encoder quality.
func (j *JPEG) Quality() int {
	return j.quality
}

// Encode compresses frame.
func (j *JPEG) Encode(frame *framerelay.Frame) ([]byte, error) {
	img, err := ToImage(frame)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: j.quality}); err != nil {
		return nil, errors.Wrap(err, "jpeg encode")
	}
	return buf.Bytes(), nil
}

// Decode restores an RGB frame from a JPEG payload.
func (j *JPEG) Decode(payload []byte) (*framerelay.Frame, error) {
	img, err := jpeg.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "jpeg decode")
	}
	return FromImage(img), nil
}
