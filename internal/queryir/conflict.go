package queryir

import "fmt"

// ConflictKind categorizes composition conflicts.
type ConflictKind string

const (
	// ConflictNamespace means a prefix was rebound to a different URI.
	ConflictNamespace ConflictKind = "NAMESPACE"

	// ConflictExpression means an expression variable was redefined with
	// different expression text.
	ConflictExpression ConflictKind = "EXPRESSION"
)

// Conflict records one last-writer-wins overwrite made while extensions
// composed a query. Current is the value that won.
type Conflict struct {
	Kind     ConflictKind
	Key      string
	Previous string
	Current  string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s %q: %q overwritten by %q", c.Kind, c.Key, c.Previous, c.Current)
}
