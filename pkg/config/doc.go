// Package config provides unified configuration management for the dasio toolkit.
//
// A single Config structure covers everything the CLI and the reader pipeline
// need, so there is exactly one YAML shape to learn and one place defaults live.
//
// # Key Features
//
// - Config: Single configuration structure with Logging, Metrics and Read sections
// - Environment variable substitution with ${VAR_NAME} syntax
// - Automatic defaults and validation
// - Missing files fall back to defaults so the CLI runs unconfigured
//
// # Usage
//
// ## Basic Configuration Loading
//
//	cfg, err := config.LoadFile("dasio.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// ## Environment Variable Substitution
//
// Configuration files may reference environment variables:
//
//	metrics:
//	  enabled: true
//	  listen: "${DASIO_METRICS_LISTEN}"
//
// The loader replaces ${DASIO_METRICS_LISTEN} with the value of the
// environment variable before parsing the YAML.
//
// ## Format Aliases
//
// Sites with in-house file suffixes can map them onto the built-in readers:
//
//	read:
//	  aliases:
//	    das: h5
//	    iq: npy
package config
