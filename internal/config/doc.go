// Package config provides configuration structures and utilities for docpointer.
// It defines the server, upload retention, extraction and report options,
// and loads overrides from a YAML or TOML configuration file.
package config
