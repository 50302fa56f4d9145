// Package secrets resolves named credentials from the environment or GCP Secret Manager.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound is returned when no source holds the requested secret.
var ErrNotFound = errors.New("secret not found")

// Source looks up a secret by name.
type Source interface {
	Get(ctx context.Context, name string) (string, error)
}

// Env reads secrets from environment variables of the same name.
type Env struct{}

// Get implements Source. Blank values count as missing.
func (Env) Get(_ context.Context, name string) (string, error) {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return v, nil
}

// Chain tries each source in order and returns the first hit. Errors other than
// ErrNotFound stop the lookup.
type Chain []Source

// Get implements Source.
func (c Chain) Get(ctx context.Context, name string) (string, error) {
	for _, src := range c {
		v, err := src.Get(ctx, name)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

// Lookup returns the secret or "" when it is absent. Other errors are returned.
func Lookup(ctx context.Context, src Source, name string) (string, error) {
	if src == nil || name == "" {
		return "", nil
	}
	v, err := src.Get(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
