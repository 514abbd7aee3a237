// relation.go validates relation endpoints.

package validate

import "fmt"

// Relation validates a relation's type and endpoints and returns the
// normalised endpoints. Self-relations are rejected.
func Relation(typ, from, to string) (string, string, error) {
	if typ == "" {
		return "", "", fmt.Errorf("%w: empty type", ErrInvalidRelation)
	}
	f, err := Path(from, 0)
	if err != nil {
		return "", "", fmt.Errorf("%w: from: %w", ErrInvalidRelation, err)
	}
	t, err := Path(to, 0)
	if err != nil {
		return "", "", fmt.Errorf("%w: to: %w", ErrInvalidRelation, err)
	}
	if f == t {
		return "", "", fmt.Errorf("%w: self-referential", ErrInvalidRelation)
	}
	return f, t, nil
}
