// Package config provides YAML-based configuration loading for framerelay.
package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	// Log holds logging configuration
	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Server configures the relay server (`framerelay serve`)
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Client configures the producer (`framerelay stream`)
	Client ClientConfig `mapstructure:"client" yaml:"client"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
	// Format: console or json
	Format string `mapstructure:"format" yaml:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs" yaml:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development" yaml:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable" yaml:"enable"`
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ServerConfig configures the relay server.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// Capacity is the number of producers served at the same time
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
	// QuitScope: connection (a quit ends one stream) or server (a quit also stops accepting)
	QuitScope string `mapstructure:"quit_scope" yaml:"quit_scope"`
	// Codec: jpeg or identity
	Codec string `mapstructure:"codec" yaml:"codec"`
	// MaxFrameSize rejects larger length prefixes; 0 disables the check
	MaxFrameSize int `mapstructure:"max_frame_size" yaml:"max_frame_size"`
	// IdleTimeout closes connections that send nothing for this long; 0 disables it
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	Sink SinkConfig `mapstructure:"sink" yaml:"sink"`
}

// SinkConfig selects where received frames go.
type SinkConfig struct {
	// Kind: log or disk
	Kind string `mapstructure:"kind" yaml:"kind"`
	// Dir is the output directory of the disk sink
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Format of the disk sink: jpeg, png or raw
	Format string `mapstructure:"format" yaml:"format"`
	// MaxFrames ends a stream after this many frames; 0 means no limit
	MaxFrames uint64 `mapstructure:"max_frames" yaml:"max_frames"`
}

// ClientConfig configures the producer.
type ClientConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// Quality is the JPEG quality, 1-100
	Quality int `mapstructure:"quality" yaml:"quality"`
	// Codec: jpeg or identity
	Codec       string        `mapstructure:"codec" yaml:"codec"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	// FPS limits the send rate; 0 sends as fast as possible
	FPS float64 `mapstructure:"fps" yaml:"fps"`

	Source SourceConfig `mapstructure:"source" yaml:"source"`
}

// SourceConfig selects where frames come from.
type SourceConfig struct {
	// Kind: pattern or directory
	Kind   string `mapstructure:"kind" yaml:"kind"`
	Width  int    `mapstructure:"width" yaml:"width"`
	Height int    `mapstructure:"height" yaml:"height"`
	// Frames limits the pattern source; 0 streams forever
	Frames uint64 `mapstructure:"frames" yaml:"frames"`
	// Dir is the image directory of the directory source
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Loops is how often the directory is replayed; 0 loops forever
	Loops int `mapstructure:"loops" yaml:"loops"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Addr returns host:port.
func (c ClientConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// FrameInterval converts FPS to the time between frames.
func (c ClientConfig) FrameInterval() time.Duration {
	if c.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.FPS)
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/framerelay.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         9999,
			Capacity:     8,
			QuitScope:    "connection",
			Codec:        "jpeg",
			MaxFrameSize: 64 * 1024 * 1024,
			Sink: SinkConfig{
				Kind:   "log",
				Dir:    "frames",
				Format: "jpeg",
			},
		},
		Client: ClientConfig{
			Host:        "127.0.0.1",
			Port:        9999,
			Quality:     90,
			Codec:       "jpeg",
			DialTimeout: 10 * time.Second,
			Source: SourceConfig{
				Kind:   "pattern",
				Width:  1024,
				Height: 576,
				Loops:  1,
			},
		},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix FRAMERELAY and `.` is replaced with `_`.
// Example: FRAMERELAY_SERVER_CAPACITY=2
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FRAMERELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	if err := seedDefaults(v, cfg); err != nil {
		return nil, err
	}

	// Choose config file
	if path == "" {
		if envPath := os.Getenv("FRAMERELAY_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("framerelay")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".framerelay"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// seedDefaults registers every leaf of cfg as a viper default, keyed by its
// dotted mapstructure path. AutomaticEnv only resolves keys viper knows about.
func seedDefaults(v *viper.Viper, cfg *Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode defaults")
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return errors.Wrap(err, "decode defaults")
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Client.Port < 0 || c.Client.Port > 65535 {
		return errors.Errorf("invalid client.port: %d", c.Client.Port)
	}
	if c.Server.Capacity <= 0 {
		return errors.Errorf("invalid server.capacity: %d (must be positive)", c.Server.Capacity)
	}
	if c.Server.MaxFrameSize < 0 {
		return errors.Errorf("invalid server.max_frame_size: %d", c.Server.MaxFrameSize)
	}
	if c.Client.Quality < 1 || c.Client.Quality > 100 {
		return errors.Errorf("invalid client.quality: %d (must be 1-100)", c.Client.Quality)
	}
	if c.Client.FPS < 0 {
		return errors.Errorf("invalid client.fps: %v", c.Client.FPS)
	}

	c.Server.QuitScope = strings.ToLower(strings.TrimSpace(c.Server.QuitScope))
	switch c.Server.QuitScope {
	case "connection", "server":
	default:
		return errors.Errorf("invalid server.quit_scope: %q", c.Server.QuitScope)
	}

	for name, codec := range map[string]*string{"server.codec": &c.Server.Codec, "client.codec": &c.Client.Codec} {
		*codec = strings.ToLower(strings.TrimSpace(*codec))
		if *codec != "jpeg" && *codec != "identity" {
			return errors.Errorf("invalid %s: %q", name, *codec)
		}
	}

	c.Server.Sink.Kind = strings.ToLower(strings.TrimSpace(c.Server.Sink.Kind))
	switch c.Server.Sink.Kind {
	case "log", "disk":
	default:
		return errors.Errorf("invalid server.sink.kind: %q", c.Server.Sink.Kind)
	}

	c.Client.Source.Kind = strings.ToLower(strings.TrimSpace(c.Client.Source.Kind))
	switch c.Client.Source.Kind {
	case "pattern":
	case "directory":
		if strings.TrimSpace(c.Client.Source.Dir) == "" {
			return errors.New("client.source.dir is required for the directory source")
		}
	default:
		return errors.Errorf("invalid client.source.kind: %q", c.Client.Source.Kind)
	}
	return nil
}

// Dump renders cfg as YAML.
func Dump(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "encode config")
	}
	return out, nil
}

