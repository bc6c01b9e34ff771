package model

import (
	"fmt"
	"strings"
)

// Scope classifies where a dependency applies.
type Scope string

const (
	ScopeCompile  Scope = "compile"
	ScopeProvided Scope = "provided"
	ScopeRuntime  Scope = "runtime"
	ScopeTest     Scope = "test"
	ScopeSystem   Scope = "system"
)

var resolutionScopes = map[Scope][]Scope{
	ScopeCompile:  {ScopeCompile, ScopeProvided, ScopeSystem},
	ScopeRuntime:  {ScopeCompile, ScopeRuntime},
	ScopeTest:     {ScopeCompile, ScopeProvided, ScopeRuntime, ScopeTest, ScopeSystem},
	ScopeProvided: {ScopeProvided},
	ScopeSystem:   {ScopeSystem},
}

// ParseScope converts a configuration value into a Scope. An empty value means compile.
func ParseScope(value string) (Scope, error) {
	s := Scope(strings.ToLower(strings.TrimSpace(value)))
	if s == "" {
		return ScopeCompile, nil
	}

	if _, ok := resolutionScopes[s]; !ok {
		return "", fmt.Errorf("unknown dependency scope %q", value)
	}

	return s, nil
}

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	_, ok := resolutionScopes[s]
	return ok
}

// IncludedBy reports whether a dependency with scope s is part of a resolution
// performed for the given scope.
func (s Scope) IncludedBy(resolution Scope) bool {
	if s == "" {
		s = ScopeCompile
	}

	for _, included := range resolutionScopes[resolution] {
		if included == s {
			return true
		}
	}

	return false
}
