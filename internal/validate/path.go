package validate

import (
	"fmt"
	"strings"

	"github.com/jpl-au/docstore/internal/path"
)

// Path validates a document id and returns the normalised form.
//
// Validation rules:
//   - Empty ids rejected
//   - Null bytes rejected
//   - Max length enforced if maxLen > 0 (0 means no limit, used by reads)
//   - Normalisation via path.Normalise
func Path(p string, maxLen int) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty id", ErrInvalidPath)
	}
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: null byte in id", ErrInvalidPath)
	}
	if maxLen > 0 && len(p) > maxLen {
		return "", fmt.Errorf("%w: %w", ErrPathTooLong, path.ErrTooLong)
	}

	norm, err := path.Normalise(p)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	return norm, nil
}
