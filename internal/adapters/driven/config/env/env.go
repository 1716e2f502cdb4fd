// Package env resolves provider API keys from the process environment and
// optional .env files.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// Ensure SecretSource implements the interface.
var _ driven.SecretSource = (*SecretSource)(nil)

// SecretSource reads secrets from the environment first, then from values
// parsed out of .env files. Files never modify the process environment.
type SecretSource struct {
	lookupEnv func(string) (string, bool)
	fileVals  map[string]string
}

// NewSecretSource parses the given .env files in order; earlier files win.
// Missing files are skipped. A malformed file is an error.
func NewSecretSource(files ...string) (*SecretSource, error) {
	vals := make(map[string]string)
	for _, path := range files {
		parsed, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		for k, v := range parsed {
			if _, seen := vals[k]; !seen {
				vals[k] = v
			}
		}
	}

	return &SecretSource{
		lookupEnv: os.LookupEnv,
		fileVals:  vals,
	}, nil
}

// Lookup returns the trimmed secret and whether a non-empty value exists.
func (s *SecretSource) Lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if v, ok := s.lookupEnv(name); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
	if v := strings.TrimSpace(s.fileVals[name]); v != "" {
		return v, true
	}
	return "", false
}
