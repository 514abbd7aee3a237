// errors.go defines sentinel errors for validation failures.

package validate

import "errors"

var (
	ErrInvalidPath     = errors.New("invalid id")
	ErrPathTooLong     = errors.New("id too long")
	ErrContentRequired = errors.New("content is required")
	ErrContentTooLarge = errors.New("content too large")
	ErrInvalidRelation = errors.New("invalid relation")
)
