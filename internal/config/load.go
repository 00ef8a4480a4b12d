package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
//
// ParseErr is set when the file existed but could not be used; Config then
// holds the defaults.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
	Created  bool
	ParseErr error
}

// Load resolves, reads, parses, and validates the runtime configuration.
//
// A missing file is created from defaults. A malformed file yields the
// defaults plus ParseErr; only an unresolvable path is returned as an error.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	base := Default()
	base.Files = FilesConfig{
		Config:     resolvedPath,
		DeviceList: DeviceListPath(resolvedPath),
	}

	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			loaded := Loaded{Path: resolvedPath, Config: base}
			if saveErr := Save(resolvedPath, base); saveErr != nil {
				loaded.Warnings = append(loaded.Warnings, Warning{
					Message: fmt.Sprintf("config file %q not found and could not be created: %v", resolvedPath, saveErr),
				})
				return loaded, nil
			}
			loaded.Created = true
			loaded.Warnings = append(loaded.Warnings, Warning{
				Message: fmt.Sprintf("config file %q not found; wrote defaults", resolvedPath),
			})
			return loaded, nil
		}
		return fallback(resolvedPath, base, nil, fmt.Errorf("read config %q: %w", resolvedPath, err), false), nil
	}

	cfg, warnings, err := Parse(string(content), base)
	if err != nil {
		return fallback(resolvedPath, base, warnings, fmt.Errorf("parse config %q: %w", resolvedPath, err), true), nil
	}

	validated, err := Validate(cfg)
	if err != nil {
		return fallback(resolvedPath, base, warnings, fmt.Errorf("validate config %q: %w", resolvedPath, err), true), nil
	}

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: append(warnings, validated...),
		Exists:   true,
	}, nil
}

// fallback builds a defaults-backed Loaded for an unusable config file.
func fallback(path string, base Config, warnings []Warning, cause error, exists bool) Loaded {
	line := 0
	var parseErr *ParseError
	if errors.As(cause, &parseErr) {
		line = parseErr.Line
	}
	warnings = append(warnings, Warning{
		Line:    line,
		Message: fmt.Sprintf("%v; using defaults", cause),
	})
	return Loaded{
		Path:     path,
		Config:   base,
		Warnings: warnings,
		Exists:   exists,
		ParseErr: cause,
	}
}
