// Package config loads noisseur settings with viper.
//
// Values come from built-in defaults, then an optional YAML file
// (config.yaml in the working directory or $HOME/.noisseur), then NOISSEUR_*
// environment variables, with later sources winning. Nested keys map to
// environment names by replacing dots with underscores:
// recognize.pipeline is NOISSEUR_RECOGNIZE_PIPELINE.
package config
