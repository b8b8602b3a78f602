package config

import (
	"strings"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/compression"
	"github.com/ajitpratap0/colwire/pkg/ipc"
	"github.com/ajitpratap0/colwire/pkg/logger"
	"github.com/ajitpratap0/colwire/pkg/observability"
)

// Config is the top level configuration used by the CLI and by programs
// embedding the IPC reader and writer.
type Config struct {
	// Logging configures the global zap logger
	Logging logger.Config `yaml:"logging" json:"logging"`

	// Writer settings apply to stream and file writers
	Writer WriterConfig `yaml:"writer" json:"writer"`

	// Reader settings apply to stream and file readers
	Reader ReaderConfig `yaml:"reader" json:"reader"`

	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	Tracing observability.TracingConfig `yaml:"tracing" json:"tracing"`
}

// WriterConfig configures IPC writers.
type WriterConfig struct {
	// Compression is one of none, lz4 or zstd
	Compression string `yaml:"compression" json:"compression"`
	// Level is one of fastest, default, better or best
	Level string `yaml:"level" json:"level"`
	// EmitDictionaryDeltas sends dictionary growth as deltas on streams
	EmitDictionaryDeltas bool `yaml:"emit_dictionary_deltas" json:"emit_dictionary_deltas"`
	// BatchRows flushes a batch once it holds this many rows
	BatchRows int `yaml:"batch_rows" json:"batch_rows"`
	// BatchBytes flushes a batch once its buffers reach this size (0 = no limit)
	BatchBytes int64 `yaml:"batch_bytes" json:"batch_bytes"`
}

// ReaderConfig configures IPC readers.
type ReaderConfig struct {
	UseMmap            bool `yaml:"use_mmap" json:"use_mmap"`
	EnsureNativeEndian bool `yaml:"ensure_native_endian" json:"ensure_native_endian"`
}

// MetricsConfig controls the Prometheus endpoint served by the CLI.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
	Path    string `yaml:"path" json:"path"`
}

// Default returns a configuration with every field set.
func Default() *Config {
	return &Config{
		Logging: logger.Config{
			Level:       "info",
			Encoding:    "console",
			OutputPaths: []string{"stderr"},
		},
		Writer: WriterConfig{
			Compression: string(compression.None),
			Level:       compression.Default.String(),
			BatchRows:   64 * 1024,
		},
		Reader: ReaderConfig{
			EnsureNativeEndian: true,
		},
		Metrics: MetricsConfig{
			Address: ":9464",
			Path:    "/metrics",
		},
		Tracing: observability.DefaultTracingConfig(),
	}
}

var levels = map[string]compression.Level{
	compression.Fastest.String(): compression.Fastest,
	compression.Default.String(): compression.Default,
	compression.Better.String():  compression.Better,
	compression.Best.String():    compression.Best,
}

// Validate checks ranges and enumerations. Errors are of type
// colerrors.ErrorTypeConfig.
func (c *Config) Validate() error {
	if _, err := compression.ParseAlgorithm(c.Writer.Compression); err != nil {
		return err
	}
	if _, ok := levels[strings.ToLower(c.Writer.Level)]; !ok && c.Writer.Level != "" {
		return colerrors.Newf(colerrors.ErrorTypeConfig, "unknown compression level %q", c.Writer.Level)
	}
	if c.Writer.BatchRows <= 0 {
		return colerrors.New(colerrors.ErrorTypeConfig, "writer.batch_rows must be positive")
	}
	if c.Writer.BatchBytes < 0 {
		return colerrors.New(colerrors.ErrorTypeConfig, "writer.batch_bytes must not be negative")
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		return colerrors.Newf(colerrors.ErrorTypeConfig, "unknown log encoding %q", c.Logging.Encoding)
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return colerrors.New(colerrors.ErrorTypeConfig, "metrics.address is required when metrics are enabled")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return colerrors.Newf(colerrors.ErrorTypeConfig, "metrics.path %q must start with /", c.Metrics.Path)
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return colerrors.New(colerrors.ErrorTypeConfig, "tracing.sampling_rate must be between 0 and 1")
	}
	return nil
}

// WriterConfig converts the writer section for ipc.NewWriter and
// ipc.NewFileWriter. Call Validate first; unknown values fall back to
// defaults here.
func (c *Config) WriterConfig() *ipc.WriterConfig {
	alg, err := compression.ParseAlgorithm(c.Writer.Compression)
	if err != nil {
		alg = compression.None
	}
	level, ok := levels[strings.ToLower(c.Writer.Level)]
	if !ok {
		level = compression.Default
	}
	return &ipc.WriterConfig{
		Compression:          alg,
		Level:                level,
		EmitDictionaryDeltas: c.Writer.EmitDictionaryDeltas,
	}
}

// ReaderConfig converts the reader section for the ipc readers.
func (c *Config) ReaderConfig() *ipc.ReaderConfig {
	return &ipc.ReaderConfig{
		UseMmap:            c.Reader.UseMmap,
		EnsureNativeEndian: c.Reader.EnsureNativeEndian,
	}
}
