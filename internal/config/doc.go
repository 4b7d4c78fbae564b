// Package config loads phrasify settings from defaults, an optional YAML file
// and PHRASIFY_ environment variables, and validates the result before any
// component sees it.
package config
