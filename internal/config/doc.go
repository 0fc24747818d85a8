// Package config loads the application configuration from defaults, an
// optional YAML file, PROCBRIDGE_* environment variables and command-line
// flags, in increasing order of precedence.
package config
