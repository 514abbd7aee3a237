// errors.go maps service errors to HTTP status codes and writes JSON
// bodies.

package httpapi

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/gitstore"
	"github.com/jpl-au/docstore/internal/query"
	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
	"github.com/jpl-au/docstore/internal/validate"
)

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("bad request")

var badRequest = []error{
	errBadRequest,
	validate.ErrInvalidPath,
	validate.ErrPathTooLong,
	validate.ErrContentRequired,
	validate.ErrContentTooLarge,
	validate.ErrInvalidRelation,
	analytical.ErrEmptyPublish,
	analytical.ErrDuplicateDocument,
	analytical.ErrInvalidStatus,
	gitstore.ErrReservedKey,
	query.ErrPredicate,
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, analytical.ErrActionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnsupported):
		return http.StatusNotImplemented
	}
	for _, e := range badRequest {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), map[string]string{"error": err.Error()})
}

func notFound(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found", "id": id})
}
