package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zereker/framerelay"
	"github.com/Zereker/framerelay/codec"
	"github.com/Zereker/framerelay/config"
	"github.com/Zereker/framerelay/sink"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyServeFlags(cmd, &cfg.Server)

		frameSink, err := newSink(cfg.Server)
		if err != nil {
			return err
		}

		server, err := framerelay.NewServer(newCodec(cfg.Server.Codec, 0), frameSink,
			framerelay.ServerLoggerOption(logger.Named("server")),
			framerelay.CapacityOption(cfg.Server.Capacity),
			framerelay.QuitScopeOption(quitScope(cfg.Server.QuitScope)),
			framerelay.ServerConnOptions(
				framerelay.MaxFrameSizeOption(cfg.Server.MaxFrameSize),
				framerelay.IdleTimeoutOption(cfg.Server.IdleTimeout),
			),
		)
		if err != nil {
			return err
		}

		err = server.Serve(cmd.Context(), cfg.Server.Addr())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	f := serveCmd.Flags()
	f.String("host", "", "listen host")
	f.Int("port", 0, "listen port")
	f.Int("capacity", 0, "number of producers served at once")
	f.String("quit-scope", "", "what a sink quit ends: connection or server")
	f.String("sink", "", "frame sink: log or disk")
	f.String("out", "", "output directory of the disk sink")
	f.Uint64("max-frames", 0, "end a stream after this many frames (disk sink)")
}

func applyServeFlags(cmd *cobra.Command, c *config.ServerConfig) {
	f := cmd.Flags()
	if f.Changed("host") {
		c.Host, _ = f.GetString("host")
	}
	if f.Changed("port") {
		c.Port, _ = f.GetInt("port")
	}
	if f.Changed("capacity") {
		c.Capacity, _ = f.GetInt("capacity")
	}
	if f.Changed("quit-scope") {
		c.QuitScope, _ = f.GetString("quit-scope")
	}
	if f.Changed("sink") {
		c.Sink.Kind, _ = f.GetString("sink")
	}
	if f.Changed("out") {
		c.Sink.Dir, _ = f.GetString("out")
	}
	if f.Changed("max-frames") {
		c.Sink.MaxFrames, _ = f.GetUint64("max-frames")
	}
}

func newSink(c config.ServerConfig) (framerelay.FrameSink, error) {
	switch c.Sink.Kind {
	case "disk":
		return sink.NewDisk(c.Sink.Dir, c.Sink.Format, codec.DefaultJPEGQuality, c.Sink.MaxFrames)
	case "log", "":
		return sink.NewLog(logger.Named("sink")), nil
	default:
		return nil, errors.Errorf("unknown sink %q", c.Sink.Kind)
	}
}

func newCodec(name string, quality int) framerelay.Codec {
	if name == "identity" {
		return codec.Identity{}
	}
	return codec.NewJPEG(quality)
}

func quitScope(name string) framerelay.QuitScope {
	if name == "server" {
		return framerelay.QuitServer
	}
	return framerelay.QuitConnection
}
