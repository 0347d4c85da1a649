package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/host/middleware"
	"github.com/xy-planning-network/switchyard/host/req"
	"github.com/xy-planning-network/switchyard/logger"
	"github.com/xy-planning-network/switchyard/router"
)

// TypeHeader carries the MIME type the Router reports for the requested URI.
const TypeHeader = "X-Switchyard-Type"

// Handler exposes the Host's Router over HTTP.
// The request path, less any BASE_URL path, is the URI path under the Host's authority:
//
//	GET    /books?columns=id,title&where=year+>+?&arg=1970&order=year  query
//	POST   /books                                                      insert
//	PUT    /books/3                                                    update
//	PATCH  /books/3                                                    update
//	DELETE /books?where=year+<+?&arg=1970                              delete
//
// GET / lists the tables with a handler and what each supports.
func (h *Host) Handler() http.Handler {
	r := mux.NewRouter()
	base := ""
	if h.url != nil {
		base = strings.TrimSuffix(h.url.Path, "/")
	}

	sub := r.PathPrefix(base + "/").Subrouter()
	sub.Path("/").Methods(http.MethodGet).HandlerFunc(h.handleTables)
	sub.Methods(http.MethodGet, http.MethodHead).HandlerFunc(h.authorize(switchyard.Query, h.handleQuery))
	sub.Methods(http.MethodPost).HandlerFunc(h.authorize(switchyard.Insert, middleware.Idempotent(h.idempotency)(http.HandlerFunc(h.handleInsert)).ServeHTTP))
	sub.Methods(http.MethodPut, http.MethodPatch).HandlerFunc(h.authorize(switchyard.Update, h.handleUpdate))
	sub.Methods(http.MethodDelete).HandlerFunc(h.authorize(switchyard.Delete, h.handleDelete))

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		h.writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: http.StatusText(http.StatusMethodNotAllowed)})
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		h.writeJSON(w, http.StatusNotFound, errorBody{Error: http.StatusText(http.StatusNotFound)})
	})

	mws := []middleware.Adapter{
		middleware.ReportPanic(h.env, h.l),
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.RateLimit(h.visitors),
		middleware.LogRequest(h.l),
		middleware.AccessLog(h.accessLog),
	}
	if h.url != nil && !h.env.IsTesting() {
		mws = append(mws, middleware.CORS(h.url.Scheme+"://"+h.url.Host, TypeHeader))
	}
	if h.url != nil && h.url.Scheme == "https" && !h.env.IsDevelopment() {
		mws = append([]middleware.Adapter{middleware.ForceHTTPS(h.url)}, mws...)
	}

	return middleware.Chain(r, mws...)
}

type errorBody struct {
	Error   string                `json:"error"`
	Details []req.ValidationError `json:"details,omitempty"`
}

type tableBody struct {
	Table        string                 `json:"table"`
	Type         string                 `json:"type,omitempty"`
	Capabilities []switchyard.Operation `json:"capabilities"`
}

type tablesBody struct {
	Authority string      `json:"authority"`
	Tables    []tableBody `json:"tables"`
}

type insertBody struct {
	URI switchyard.URI `json:"uri"`
}

type affectedBody struct {
	Affected int64 `json:"affected"`
}

// authorize requires the request to authenticate as a Principal allowed to perform op
// on the table it addresses, then requires that table's Handler to perform op.
// Without an *auth.Service, authorize checks only the Handler.
func (h *Host) authorize(op switchyard.Operation, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uri, err := h.requestURI(r)
		if err != nil {
			h.writeErr(w, r, uri, err)
			return
		}

		if h.auth != nil {
			p, err := h.auth.Authenticate(r.Context(), r)
			if err != nil {
				h.writeErr(w, r, uri, err)
				return
			}

			table, _ := uri.Table()
			if !p.Allows(op, table) {
				h.writeErr(w, r, uri, fmt.Errorf("%w: %s may not %s %s", switchyard.ErrForbidden, p.Subject, op, table))
				return
			}

			h.l.Debug(fmt.Sprintf("%s authorized to %s", p.Subject, op), &logger.LogContext{URI: uri, Request: r})
		}

		if err := h.router.Supports(uri, op); err != nil {
			h.writeErr(w, r, uri, err)
			return
		}

		next(w, r)
	}
}

func (h *Host) handleTables(w http.ResponseWriter, r *http.Request) {
	body := tablesBody{Authority: h.authority, Tables: make([]tableBody, 0)}
	for _, table := range h.router.Handlers() {
		// A handler may type its directory URI differently or not at all.
		mime, _ := h.router.Type(h.URI(table))
		body.Tables = append(body.Tables, tableBody{
			Table:        table,
			Type:         mime,
			Capabilities: h.router.Capabilities(table),
		})
	}

	h.writeJSON(w, http.StatusOK, body)
}

func (h *Host) handleQuery(w http.ResponseWriter, r *http.Request) {
	uri, err := h.requestURI(r)
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	mime, err := h.router.Type(uri)
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	var params req.Params
	if err := h.parser.ParseQueryParams(r.URL.Query(), &params); err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	cur, err := h.router.Query(r.Context(), h.db, uri, params.ColumnList(), params.Selection(), params.Order)
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	rows, err := router.Collect(cur)
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	if rows == nil {
		rows = make([]switchyard.Values, 0)
	}

	w.Header().Set(TypeHeader, mime)
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Host) handleInsert(w http.ResponseWriter, r *http.Request) {
	uri, err := h.requestURI(r)
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	values, err := h.parser.ParseValues(r.Body)
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	created, err := h.router.Insert(r.Context(), h.db, uri, values)
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	w.Header().Set("Location", h.location(created))
	h.writeJSON(w, http.StatusCreated, insertBody{URI: created})
}

func (h *Host) handleUpdate(w http.ResponseWriter, r *http.Request) {
	uri, err := h.requestURI(r)
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	var params req.Params
	if err := h.parser.ParseQueryParams(r.URL.Query(), &params); err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	values, err := h.parser.ParseValues(r.Body)
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	n, err := h.router.Update(r.Context(), h.db, uri, values, params.Selection())
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	h.writeJSON(w, http.StatusOK, affectedBody{Affected: n})
}

func (h *Host) handleDelete(w http.ResponseWriter, r *http.Request) {
	uri, err := h.requestURI(r)
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	var params req.Params
	if err := h.parser.ParseQueryParams(r.URL.Query(), &params); err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	n, err := h.router.Delete(r.Context(), h.db, uri, params.Selection())
	if err != nil {
		h.writeErr(w, r, uri, err)
		return
	}

	h.writeJSON(w, http.StatusOK, affectedBody{Affected: n})
}

// requestURI maps the request path onto a URI under the Host's authority.
func (h *Host) requestURI(r *http.Request) (switchyard.URI, error) {
	path := r.URL.EscapedPath()
	if h.url != nil {
		path = strings.TrimPrefix(path, strings.TrimSuffix(h.url.Path, "/"))
	}

	return switchyard.ParseURI(switchyard.DefaultScheme + "://" + h.authority + path)
}

// location renders uri as a path the Host's Handler serves.
func (h *Host) location(uri switchyard.URI) string {
	var b strings.Builder
	if h.url != nil {
		b.WriteString(strings.TrimSuffix(h.url.Path, "/"))
	}

	s := uri.String()
	b.WriteString(strings.TrimPrefix(s, switchyard.DefaultScheme+"://"+uri.Authority))

	return b.String()
}

func (h *Host) writeErr(w http.ResponseWriter, r *http.Request, uri switchyard.URI, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.l.Error(err.Error(), &logger.LogContext{Error: err, Request: r, URI: uri})
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="`+h.authority+`"`)
	}

	body := errorBody{Error: err.Error()}
	if status >= http.StatusInternalServerError {
		body.Error = http.StatusText(status)
	}
	var ves req.ValidationErrors
	if errors.As(err, &ves) {
		body.Details = ves
	}

	h.writeJSON(w, status, body)
}

func (h *Host) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.l.Error(fmt.Sprintf("failed encoding %T", body), &logger.LogContext{Error: err})
	}
}

// statusOf maps err onto the HTTP status describing it.
func statusOf(err error) int {
	switch {
	case errors.Is(err, switchyard.ErrNoHandler), errors.Is(err, switchyard.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, switchyard.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, switchyard.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, switchyard.ErrUnsupported):
		return http.StatusMethodNotAllowed
	case errors.Is(err, switchyard.ErrNotValid), errors.Is(err, switchyard.ErrMissingData):
		return http.StatusBadRequest
	case errors.Is(err, switchyard.ErrExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
