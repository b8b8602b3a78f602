package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
)

// EnvPrefix prefixes environment variables read through FromViper.
const EnvPrefix = "COLWIRE"

// Load reads a YAML file into cfg after substituting ${VAR} references.
// Fields missing from the file keep the value cfg already holds, so callers
// usually pass Default().
func Load(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the caller
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeConfig, "read config file").
			WithDetail("path", filePath)
	}

	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeConfig, "parse YAML").
			WithDetail("path", filePath)
	}
	return nil
}

// Save writes cfg as YAML.
func Save(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeConfig, "marshal YAML")
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil { //nolint:gosec
		return colerrors.Wrap(err, colerrors.ErrorTypeConfig, "write config file").
			WithDetail("path", filePath)
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Unset variables become empty strings.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}

// BindDefaults registers every configuration key with its default value,
// which lets viper resolve COLWIRE_* environment variables for them.
func BindDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.output_paths", d.Logging.OutputPaths)
	v.SetDefault("writer.compression", d.Writer.Compression)
	v.SetDefault("writer.level", d.Writer.Level)
	v.SetDefault("writer.emit_dictionary_deltas", d.Writer.EmitDictionaryDeltas)
	v.SetDefault("writer.batch_rows", d.Writer.BatchRows)
	v.SetDefault("writer.batch_bytes", d.Writer.BatchBytes)
	v.SetDefault("reader.use_mmap", d.Reader.UseMmap)
	v.SetDefault("reader.ensure_native_endian", d.Reader.EnsureNativeEndian)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.address", d.Metrics.Address)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.service_version", d.Tracing.ServiceVersion)
	v.SetDefault("tracing.sampling_rate", d.Tracing.SamplingRate)
	v.SetDefault("tracing.pretty_print", d.Tracing.PrettyPrint)
	v.SetDefault("tracing.batch_timeout", d.Tracing.BatchTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper builds a Config from v. Keys follow the YAML layout, for example
// writer.compression, and are set by flags, COLWIRE_WRITER_COMPRESSION or a
// config file read by v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := Default()
	cfg.Logging.Level = v.GetString("logging.level")
	cfg.Logging.Development = v.GetBool("logging.development")
	cfg.Logging.Encoding = v.GetString("logging.encoding")
	if paths := v.GetStringSlice("logging.output_paths"); len(paths) > 0 {
		cfg.Logging.OutputPaths = paths
	}
	cfg.Writer.Compression = v.GetString("writer.compression")
	cfg.Writer.Level = v.GetString("writer.level")
	cfg.Writer.EmitDictionaryDeltas = v.GetBool("writer.emit_dictionary_deltas")
	cfg.Writer.BatchRows = v.GetInt("writer.batch_rows")
	cfg.Writer.BatchBytes = v.GetInt64("writer.batch_bytes")
	cfg.Reader.UseMmap = v.GetBool("reader.use_mmap")
	cfg.Reader.EnsureNativeEndian = v.GetBool("reader.ensure_native_endian")
	cfg.Metrics.Enabled = v.GetBool("metrics.enabled")
	cfg.Metrics.Address = v.GetString("metrics.address")
	cfg.Metrics.Path = v.GetString("metrics.path")
	cfg.Tracing.Enabled = v.GetBool("tracing.enabled")
	cfg.Tracing.ServiceName = v.GetString("tracing.service_name")
	cfg.Tracing.ServiceVersion = v.GetString("tracing.service_version")
	cfg.Tracing.SamplingRate = v.GetFloat64("tracing.sampling_rate")
	cfg.Tracing.PrettyPrint = v.GetBool("tracing.pretty_print")
	cfg.Tracing.BatchTimeout = v.GetDuration("tracing.batch_timeout")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
