// Package engine holds the process-wide configuration registry (spec.md
// §9's redesign note: replace the source's global registries with one
// explicit value constructed at startup and passed to every subsystem).
package engine

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/exparrot/ringsearch/pkg/bell"
)

// Context is the general-state registry threaded explicitly through
// methsearch/fextent: the bell-symbol alphabet, library search path, and
// the single per-process RNG instance (spec.md §5: "the RNG is a single
// per-process instance seeded at startup").
type Context struct {
	Alphabet    bell.Alphabet
	LibraryPath []string
	Seed        int64
	Rand        *rand.Rand
}

// New builds a Context from explicit values, falling back to the default
// ten-bell alphabet when symbols is empty.
func New(symbols string, libraryPath []string, seed int64) (*Context, error) {
	alpha := bell.Default()
	if symbols != "" {
		var err error
		alpha, err = bell.NewAlphabet(symbols)
		if err != nil {
			return nil, fmt.Errorf("engine: bell alphabet: %w", err)
		}
	}
	return &Context{
		Alphabet:    alpha,
		LibraryPath: libraryPath,
		Seed:        seed,
		Rand:        rand.New(rand.NewSource(seed)),
	}, nil
}

// FromEnvironment builds a Context from the environment. None of its
// settings is required: each one falls back to a default when unset.
// RINGSEARCH_BELL_SYMBOLS overrides the default bell-symbol alphabet
// (needed past ten bells, spec.md §6); METHOD_LIBRARY is a colon-separated
// list of library paths stored in LibraryPath.
func FromEnvironment(seed int64) (*Context, error) {
	symbols := getEnvOrDefault("RINGSEARCH_BELL_SYMBOLS", "")
	var libPath []string
	if raw := os.Getenv("METHOD_LIBRARY"); raw != "" {
		libPath = strings.Split(raw, ":")
	}
	return New(symbols, libPath, seed)
}

// getEnvOrDefault returns the env var value or a safe default for
// non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// ParseSeed parses a --seed flag value, falling back to the caller-supplied
// default (e.g. a time-derived seed for an unseeded run) when s is empty.
func ParseSeed(s string, fallback int64) (int64, error) {
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("engine: invalid --seed %q: %w", s, err)
	}
	return v, nil
}
