// Package config loads, normalizes, and validates astrotux configuration.
//
// Settings come from a TOML file (YAML is accepted when the file ends in .yaml
// or .yml) layered over repository defaults. Paths are expanded, including
// the ~ shortcut, and ntfy topics may come from ASTROTUX_NTFY_TOPIC. The
// [[handlers]] list describes every notification handler the agent builds.
//
// Always obtain settings through Load so downstream code sees sanitized paths
// and canonical values, and receives clear validation errors.
package config
