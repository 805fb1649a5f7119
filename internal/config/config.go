// Package config holds the settings of a generation run and loads them from
// YAML or CUE files.
//
// Values are layered: Default, then the file, then command-line flags set
// by the caller. Validate checks the merged result.
package config

import (
	"runtime"

	"github.com/roach88/domfuzz/internal/engine"
	"github.com/roach88/domfuzz/internal/xmlgen"
)

// Config is the configuration of a generation run.
type Config struct {
	// Grammar is the path of the main RELAX NG file.
	Grammar string `json:"grammar" yaml:"grammar"`

	// Mode is the validity mode: raw, definable or startable.
	Mode string `json:"mode" yaml:"mode"`

	// Seed is the seed of the first document; document i uses Seed+i.
	Seed  uint64 `json:"seed" yaml:"seed"`
	Count int    `json:"count" yaml:"count"`

	// Jobs is the number of documents generated concurrently.
	Jobs int `json:"jobs" yaml:"jobs"`

	MaxRepeat int `json:"max_repeat" yaml:"max_repeat"`
	MaxDepth  int `json:"max_depth" yaml:"max_depth"`
	MaxNodes  int `json:"max_nodes" yaml:"max_nodes"`

	// OutDir receives one file per document when set.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// Database is the SQLite corpus file records are written to, when set.
	Database string `json:"database" yaml:"database"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	opts := xmlgen.DefaultOptions()
	return Config{
		Mode:      engine.ModeDefinable.String(),
		Count:     1,
		Jobs:      runtime.NumCPU(),
		MaxRepeat: opts.MaxRepeat,
		MaxDepth:  opts.MaxDepth,
		MaxNodes:  opts.MaxNodes,
	}
}

// ParsedMode returns the validity mode. Call Validate first.
func (c Config) ParsedMode() engine.Mode {
	m, _ := engine.ParseMode(c.Mode)
	return m
}

// Options returns the generator limits.
func (c Config) Options() xmlgen.Options {
	return xmlgen.Options{
		MaxRepeat: c.MaxRepeat,
		MaxDepth:  c.MaxDepth,
		MaxNodes:  c.MaxNodes,
	}
}
