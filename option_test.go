package framerelay

import (
	"testing"
	"time"
)

func TestReadChunkSizeOption(t *testing.T) {
	opt := ReadChunkSizeOption(100)

	var opts options
	opt(&opts)

	if opts.readChunkSize != 100 {
		t.Errorf("readChunkSize = %d, want 100", opts.readChunkSize)
	}
}

func TestMaxFrameSizeOption(t *testing.T) {
	opt := MaxFrameSizeOption(4096)

	var opts options
	opt(&opts)

	if opts.maxFrameSize != 4096 {
		t.Errorf("maxFrameSize = %d, want 4096", opts.maxFrameSize)
	}
}

func TestIdleTimeoutOption(t *testing.T) {
	timeout := time.Minute * 5
	opt := IdleTimeoutOption(timeout)

	var opts options
	opt(&opts)

	if opts.idleTimeout != timeout {
		t.Errorf("idleTimeout = %v, want %v", opts.idleTimeout, timeout)
	}
}

func TestWriteTimeoutOption(t *testing.T) {
	opt := WriteTimeoutOption(time.Second)

	var opts options
	opt(&opts)

	if opts.writeTimeout != time.Second {
		t.Errorf("writeTimeout = %v, want 1s", opts.writeTimeout)
	}
}

func TestLoggerOption(t *testing.T) {
	logger := &mockLogger{}
	opt := LoggerOption(logger)

	var opts options
	opt(&opts)

	if opts.logger != logger {
		t.Error("logger not set correctly")
	}
}

func TestCheckOptions(t *testing.T) {
	tests := []struct {
		name          string
		in            options
		wantChunk     int
		wantFrameSize int
	}{
		{"zero", options{}, defaultReadChunkSize, 0},
		{"negative", options{readChunkSize: -1, maxFrameSize: -1}, defaultReadChunkSize, 0},
		{"custom", options{readChunkSize: 16, maxFrameSize: 1024}, 16, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.in
			checkOptions(&opts)

			if opts.readChunkSize != tt.wantChunk {
				t.Errorf("readChunkSize = %d, want %d", opts.readChunkSize, tt.wantChunk)
			}
			if opts.maxFrameSize != tt.wantFrameSize {
				t.Errorf("maxFrameSize = %d, want %d", opts.maxFrameSize, tt.wantFrameSize)
			}
			if opts.logger == nil {
				t.Error("logger not defaulted")
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := defaultOptions()
	if opts.maxFrameSize != 0 {
		t.Errorf("maxFrameSize = %d, want 0 (no limit)", opts.maxFrameSize)
	}
}
