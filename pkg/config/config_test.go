package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/compression"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown compression", func(c *Config) { c.Writer.Compression = "snappy" }},
		{"unknown level", func(c *Config) { c.Writer.Level = "max" }},
		{"zero batch rows", func(c *Config) { c.Writer.BatchRows = 0 }},
		{"negative batch bytes", func(c *Config) { c.Writer.BatchBytes = -1 }},
		{"unknown encoding", func(c *Config) { c.Logging.Encoding = "xml" }},
		{"metrics without address", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Address = "" }},
		{"metrics path", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Path = "metrics" }},
		{"sampling rate", func(c *Config) { c.Tracing.SamplingRate = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConfig))
		})
	}
}

func TestWriterAndReaderConfig(t *testing.T) {
	cfg := Default()
	cfg.Writer.Compression = "lz4_frame"
	cfg.Writer.Level = "Best"
	cfg.Writer.EmitDictionaryDeltas = true
	cfg.Reader.UseMmap = true

	w := cfg.WriterConfig()
	assert.Equal(t, compression.LZ4, w.Compression)
	assert.Equal(t, compression.Best, w.Level)
	assert.True(t, w.EmitDictionaryDeltas)

	r := cfg.ReaderConfig()
	assert.True(t, r.UseMmap)
	assert.True(t, r.EnsureNativeEndian)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("CFG_A", "one")
	t.Setenv("CFG_B", "two")
	assert.Equal(t, "one-two-", substituteEnvVars("${CFG_A}-${CFG_B}-${CFG_UNSET}"))
	assert.Equal(t, "keep ${open", substituteEnvVars("keep ${open"))
	assert.Equal(t, "plain", substituteEnvVars("plain"))
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colwire.yaml")

	cfg := Default()
	cfg.Writer.Compression = "zstd"
	cfg.Writer.BatchBytes = 1 << 20
	cfg.Metrics.Enabled = true
	require.NoError(t, Save(path, cfg))

	got := Default()
	require.NoError(t, Load(path, got))
	assert.Equal(t, cfg.Writer, got.Writer)
	assert.Equal(t, cfg.Metrics, got.Metrics)
	assert.Equal(t, cfg.Logging, got.Logging)
}

func TestLoadKeepsUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reader:\n  use_mmap: true\n"), 0o644))

	cfg := Default()
	require.NoError(t, Load(path, cfg))
	assert.True(t, cfg.Reader.UseMmap)
	assert.True(t, cfg.Reader.EnsureNativeEndian)
	assert.Equal(t, 64*1024, cfg.Writer.BatchRows)
}

func TestLoadErrors(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), Default())
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConfig))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("writer: [1, 2"), 0o644))
	err = Load(path, Default())
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConfig))
}

func TestFromViper(t *testing.T) {
	t.Setenv("COLWIRE_WRITER_COMPRESSION", "zstd")
	t.Setenv("COLWIRE_READER_USE_MMAP", "true")

	v := viper.New()
	BindDefaults(v)
	v.Set("writer.batch_rows", 10)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "zstd", cfg.Writer.Compression)
	assert.True(t, cfg.Reader.UseMmap)
	assert.Equal(t, 10, cfg.Writer.BatchRows)
	assert.Equal(t, Default().Tracing.ServiceName, cfg.Tracing.ServiceName)

	v.Set("writer.compression", "brotli")
	_, err = FromViper(v)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConfig))
}
