// Package source provides frame sources for the streaming client.
//
// Pattern synthesizes frames and stands in for a capture device; Directory
// replays image files. Both satisfy framerelay.FrameSource and are composed
// into a framerelay.Client.
package source

import (
	"github.com/pkg/errors"
)

// ErrClosed is returned by NextFrame after Close.
var ErrClosed = errors.New("frame source closed")

// Default capture resolution.
const (
	DefaultWidth  = 1024
	DefaultHeight = 576
)
