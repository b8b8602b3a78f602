// Package config holds the colwire configuration.
//
// A Config is organized into sections, one per concern: Logging, Writer,
// Reader, Metrics and Tracing. Default returns a complete configuration and
// Validate rejects unknown enumerations and out of range values.
//
// # Usage
//
//	cfg := config.Default()
//	if err := config.Load("colwire.yaml", cfg); err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	w, err := ipc.NewWriter(out, schema, cfg.WriterConfig())
//
// # Environment Variable Substitution
//
// Load replaces ${VAR_NAME} references in the YAML text before parsing:
//
//	writer:
//	  compression: ${COLWIRE_CODEC}
//
// # Viper
//
// The CLI binds flags and COLWIRE_* environment variables through viper.
// BindDefaults registers every key and FromViper reads them back:
//
//	v := viper.New()
//	config.BindDefaults(v)
//	cfg, err := config.FromViper(v)
package config
