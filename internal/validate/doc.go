// Package validate provides input validation for docstore's write paths.
//
// Validation runs in the service layer, before a request reaches any
// backend, so every backend sees the same well-formed input. Each function
// returns nil on success or an error wrapping one of the sentinels in
// errors.go:
//
//	if errors.Is(err, validate.ErrContentRequired) {
//	    // reject with 400
//	}
package validate
