package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Load error codes
const (
	ErrCodeRead   = "READ_ERROR"
	ErrCodeParse  = "PARSE_ERROR"
	ErrCodeSchema = "SCHEMA_ERROR"
	ErrCodeFormat = "UNSUPPORTED_FORMAT"
)

// LoadError is a configuration file that could not be loaded.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is a LoadError with the given code.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Code == code
}

// Load reads a configuration file over the defaults. The format follows the
// file extension: .yaml and .yml are YAML, .cue is CUE. A relative grammar
// path is resolved against the file's directory.
//
// The result is not validated.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{Code: ErrCodeRead, Path: path, Message: err.Error(), Err: err}
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = parseYAML(path, data)
	case ".cue":
		cfg, err = parseCUE(path, data)
	default:
		return Config{}, &LoadError{
			Code:    ErrCodeFormat,
			Path:    path,
			Message: fmt.Sprintf("unsupported extension %q (want .yaml, .yml or .cue)", ext),
		}
	}
	if err != nil {
		return Config{}, err
	}

	if cfg.Grammar != "" && !filepath.IsAbs(cfg.Grammar) {
		cfg.Grammar = filepath.Join(filepath.Dir(path), cfg.Grammar)
	}
	return cfg, nil
}

func parseYAML(path string, data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, &LoadError{Code: ErrCodeParse, Path: path, Message: err.Error(), Err: err}
	}
	return cfg, nil
}

func parseCUE(path string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("config schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return Config{}, &LoadError{Code: ErrCodeParse, Path: path, Message: err.Error(), Err: err}
	}

	value = schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, &LoadError{Code: ErrCodeSchema, Path: path, Message: err.Error(), Err: err}
	}

	cfg := Default()
	if err := decodeCUE(value, &cfg); err != nil {
		return Config{}, &LoadError{Code: ErrCodeSchema, Path: path, Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// decodeCUE copies the fields set in v over cfg. Optional schema fields the
// file leaves unset are not concrete and are skipped.
func decodeCUE(v cue.Value, cfg *Config) error {
	strs := map[string]*string{
		"grammar":  &cfg.Grammar,
		"mode":     &cfg.Mode,
		"out_dir":  &cfg.OutDir,
		"database": &cfg.Database,
	}
	for name, dst := range strs {
		f := v.LookupPath(cue.ParsePath(name))
		if !f.Exists() || !f.IsConcrete() {
			continue
		}
		s, err := f.String()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = s
	}

	ints := map[string]*int{
		"count":      &cfg.Count,
		"jobs":       &cfg.Jobs,
		"max_repeat": &cfg.MaxRepeat,
		"max_depth":  &cfg.MaxDepth,
		"max_nodes":  &cfg.MaxNodes,
	}
	for name, dst := range ints {
		f := v.LookupPath(cue.ParsePath(name))
		if !f.Exists() || !f.IsConcrete() {
			continue
		}
		n, err := f.Int64()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = int(n)
	}

	if f := v.LookupPath(cue.ParsePath("seed")); f.Exists() && f.IsConcrete() {
		n, err := f.Uint64()
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		cfg.Seed = n
	}
	return nil
}
