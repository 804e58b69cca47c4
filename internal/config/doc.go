// Package config loads the layered server configuration: environment
// variables, command-line flags, an optional schema-validated JSON file and
// built-in defaults, merged in that order of precedence.
package config
