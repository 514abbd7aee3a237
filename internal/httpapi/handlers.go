// handlers.go implements one handler per route.

package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/processor"
	"github.com/jpl-au/docstore/internal/query"
	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
	"github.com/jpl-au/docstore/internal/validate"
)

// maxBody caps request bodies; content limits are enforced by the service.
const maxBody = 32 << 20

// putBody is the PUT /{id...} request. Content is a pointer so an absent
// field is told apart from an empty body.
type putBody struct {
	Type       string         `json:"type"`
	Context    any            `json:"context"`
	Data       map[string]any `json:"data"`
	Content    *string        `json:"content"`
	CreateOnly bool           `json:"createOnly"`
	UpdateOnly bool           `json:"updateOnly"`
	Version    string         `json:"version"`
}

// scoped returns the service for the request's ns query parameter.
func (s *Server) scoped(r *http.Request) (service.Service, error) {
	return s.svc.In(r.URL.Query().Get("ns"))
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}

// listParam collects a repeatable, comma-separated parameter.
func listParam(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// filter reads the paging, type and where parameters shared by list and
// search. Each where parameter is one path=value predicate.
func filter(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	f := store.Filter{
		Types:  listParam(r, "type"),
		Prefix: q.Get("prefix"),
		SortBy: q.Get("sortBy"),
	}
	switch order := store.SortOrder(strings.ToLower(q.Get("sortOrder"))); order {
	case "", store.Asc, store.Desc:
		f.SortOrder = order
	default:
		return f, fmt.Errorf("%w: sortOrder must be asc or desc", errBadRequest)
	}
	var err error
	if f.Where, err = query.ParsePredicates(q["where"]); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intParam(r, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	svc, err := s.scoped(r)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if doc == nil {
		notFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, doc.ToJSON(false))
}

func (s *Server) put(w http.ResponseWriter, r *http.Request) {
	svc, err := s.scoped(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body putBody
	if err := decode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Content == nil {
		writeError(w, validate.ErrContentRequired)
		return
	}

	doc := store.Document{
		Type:    body.Type,
		Context: body.Context,
		Data:    body.Data,
		Content: *body.Content,
	}
	opts := store.SetOptions{
		CreateOnly: body.CreateOnly,
		UpdateOnly: body.UpdateOnly,
		Version:    body.Version,
	}
	res, err := svc.Set(r.Context(), r.PathValue("id"), doc, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	svc, err := s.scoped(r)
	if err != nil {
		writeError(w, err)
		return
	}
	soft, _ := strconv.ParseBool(r.URL.Query().Get("soft"))
	res, err := svc.Delete(r.Context(), r.PathValue("id"), store.DeleteOptions{Soft: soft})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	svc, err := s.scoped(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := filter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := svc.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page.ToJSON(false))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	svc, err := s.scoped(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := filter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q := store.Query{
		Filter: f,
		Text:   r.URL.Query().Get("q"),
		Fields: listParam(r, "fields"),
	}
	page, err := svc.Search(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page.ToJSON(true))
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request) {
	var body analytical.PublishBody
	if err := decode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	req, err := body.Request()
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := s.svc.Publish(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"actionId": a.ID, "status": a.Status})
}

func (s *Server) action(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Action(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) actions(w http.ResponseWriter, r *http.Request) {
	st, err := analytical.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.svc.Actions(r.Context(), analytical.ActionFilter{
		NS:     r.URL.Query().Get("ns"),
		Status: st,
		Limit:  limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []analytical.Action{}
	}
	writeJSON(w, http.StatusOK, list)
}

// process runs the processor once. Failed Actions are reported in the
// body; the status is 200 unless the claim itself fails.
func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := s.svc.Process(r.Context(), processor.RunOptions{
		NS:    r.URL.Query().Get("ns"),
		Limit: limit,
	}, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
