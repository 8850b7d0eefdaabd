package queryir

// FindPatterns walks root depth-first and returns every collection that
// directly contains a *Pattern matching the triple, ordered by where its
// first matching pattern appears. root itself is included when it matches.
// Each collection appears at most once. nil arguments are wildcards.
//
// Nested collections are returned as their concrete types (*NamedGraph or
// *Optional) so callers can append to the exact scope that matched.
func FindPatterns(root Collection, subject, predicate, object Term) []Collection {
	if root == nil {
		return nil
	}
	var found []Collection
	findPatterns(root, subject, predicate, object, &found)
	return found
}

func findPatterns(c Collection, subject, predicate, object Term, found *[]Collection) {
	matched := false
	for _, comp := range c.group().components {
		switch v := comp.(type) {
		case *Pattern:
			if !matched && v.Matches(subject, predicate, object) {
				*found = append(*found, c)
				matched = true
			}
		case *NamedGraph:
			findPatterns(v, subject, predicate, object, found)
		case *Optional:
			findPatterns(v, subject, predicate, object, found)
		}
	}
}
