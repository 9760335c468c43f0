package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zereker/framerelay"
	"github.com/Zereker/framerelay/config"
	"github.com/Zereker/framerelay/source"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream frames to a relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyStreamFlags(cmd, &cfg.Client)

		frameSource, err := newSource(cfg.Client.Source)
		if err != nil {
			return err
		}

		client, err := framerelay.NewClient(frameSource, newCodec(cfg.Client.Codec, cfg.Client.Quality),
			framerelay.ClientLoggerOption(logger.Named("client")),
			framerelay.DialTimeoutOption(cfg.Client.DialTimeout),
			framerelay.FrameIntervalOption(cfg.Client.FrameInterval()),
		)
		if err != nil {
			_ = frameSource.Close()
			return err
		}

		_, err = client.Start(cmd.Context(), cfg.Client.Addr())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	f := streamCmd.Flags()
	f.String("host", "", "server host")
	f.Int("port", 0, "server port")
	f.Int("quality", 0, "JPEG quality 1-100")
	f.Float64("fps", 0, "frames per second, 0 for unlimited")
	f.String("source", "", "frame source: pattern or directory")
	f.String("dir", "", "image directory of the directory source")
	f.Uint64("frames", 0, "number of pattern frames, 0 for unlimited")
	f.Int("loops", 0, "directory replays, 0 for unlimited")
}

func applyStreamFlags(cmd *cobra.Command, c *config.ClientConfig) {
	f := cmd.Flags()
	if f.Changed("host") {
		c.Host, _ = f.GetString("host")
	}
	if f.Changed("port") {
		c.Port, _ = f.GetInt("port")
	}
	if f.Changed("quality") {
		c.Quality, _ = f.GetInt("quality")
	}
	if f.Changed("fps") {
		c.FPS, _ = f.GetFloat64("fps")
	}
	if f.Changed("source") {
		c.Source.Kind, _ = f.GetString("source")
	}
	if f.Changed("dir") {
		c.Source.Dir, _ = f.GetString("dir")
	}
	if f.Changed("frames") {
		c.Source.Frames, _ = f.GetUint64("frames")
	}
	if f.Changed("loops") {
		c.Source.Loops, _ = f.GetInt("loops")
	}
}

func newSource(c config.SourceConfig) (framerelay.FrameSource, error) {
	switch c.Kind {
	case "directory":
		return source.NewDirectory(c.Dir, c.Loops)
	case "pattern", "":
		return source.NewPattern(c.Width, c.Height, c.Frames), nil
	default:
		return nil, errors.Errorf("unknown source %q", c.Kind)
	}
}
