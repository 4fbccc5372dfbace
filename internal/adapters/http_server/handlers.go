package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_inventory/internal/app"
	"hotel_inventory/internal/domain"
)

type Handlers struct {
	Catalog      domain.Catalog
	Resolver     *app.Resolver
	Cells        *app.CellEditor
	Bulk         *app.BulkEditor
	Availability *app.Availability
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	// set only for bulk updates that stopped part way
	OperationID string `json:"operation_id,omitempty"`
	Updated     *int   `json:"updated,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/rooms", h.listRooms)
		r.Get("/rooms/{id}", h.getRoom)
		r.Get("/rooms/{id}/inventory", h.roomInventory)
		r.Get("/inventory", h.inventoryGrid)
		r.Get("/availability", h.availability)

		r.Post("/admin/inventory", h.setCell)
		r.Post("/admin/inventory/bulk-update", h.bulkUpdate)
	})
}

func writeProblem(w http.ResponseWriter, p problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// problemFor maps the error taxonomy onto HTTP statuses.
func problemFor(err error) problem {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return problem{Title: "Not Found", Status: http.StatusNotFound, Detail: err.Error()}
	case errors.Is(err, domain.ErrInvalidRange):
		return problem{Title: "Invalid Range", Status: http.StatusBadRequest, Detail: err.Error()}
	case errors.Is(err, domain.ErrValidation):
		return problem{Title: "Validation Failed", Status: http.StatusBadRequest, Detail: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return problem{Title: "Timeout", Status: http.StatusGatewayTimeout, Detail: "request deadline exceeded"}
	case errors.Is(err, context.Canceled):
		// client went away; status is for the logs only
		return problem{Title: "Canceled", Status: 499}
	case errors.Is(err, domain.ErrStorageFault):
		return problem{Title: "Storage Unavailable", Status: http.StatusServiceUnavailable, Detail: "inventory storage is unavailable, retry later"}
	default:
		return problem{Title: "Internal Server Error", Status: http.StatusInternalServerError}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	p := problemFor(err)
	if p.Status >= 500 {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeProblem(w, p)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body, nil
}

// writeCached writes v as JSON with a weak ETag, short-circuiting to 304 when
// the client already holds this version.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body, err := calcETagAndBody(v)
	if err != nil {
		writeError(w, r, errors.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// queryDates parses the named YYYY-MM-DD query parameters. missing reports
// whether any of them was absent.
func queryDates(r *http.Request, names ...string) (dates []domain.Date, missing bool, err error) {
	q := r.URL.Query()
	for _, n := range names {
		v := q.Get(n)
		if v == "" {
			return nil, true, errors.Wrapf(domain.ErrValidation, "%s is required", n)
		}
		d, err := domain.ParseDate(v)
		if err != nil {
			return nil, false, errors.Wrapf(err, "%s", n)
		}
		dates = append(dates, d)
	}
	return dates, false, nil
}

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Catalog.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []domain.RoomType{}
	}
	writeCached(w, r, rooms)
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	rt, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, rt)
}

func (h *Handlers) roomInventory(w http.ResponseWriter, r *http.Request) {
	dates, _, err := queryDates(r, "start_date", "end_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := h.Resolver.ResolveRange(r.Context(), chi.URLParam(r, "id"), dates[0], dates[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, days)
}

func (h *Handlers) inventoryGrid(w http.ResponseWriter, r *http.Request) {
	dates, _, err := queryDates(r, "start_date", "end_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	grid, err := h.Resolver.ResolveGrid(r.Context(), dates[0], dates[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, grid)
}

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	dates, missing, err := queryDates(r, "check_in", "check_out")
	if missing {
		writeProblem(w, problem{Title: "Missing Parameters", Status: http.StatusUnprocessableEntity,
			Detail: "check_in and check_out are required"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	rooms, err := h.Availability.Search(r.Context(), dates[0], dates[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, map[string]any{
		"check_in":  dates[0],
		"check_out": dates[1],
		"rooms":     rooms,
	})
}

type cellRequest struct {
	RoomTypeID string      `json:"room_type_id"`
	Date       domain.Date `json:"date"`
	Field      string      `json:"field"`
	Value      any         `json:"value"`
}

type cellResponse struct {
	RoomTypeID string      `json:"room_type_id"`
	Date       domain.Date `json:"date"`
	domain.Effective
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return err
		}
		return errors.Wrapf(domain.ErrValidation, "malformed request body: %v", err)
	}
	return nil
}

func (h *Handlers) setCell(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RoomTypeID == "" {
		writeError(w, r, errors.Wrap(domain.ErrValidation, "room_type_id is required"))
		return
	}
	field, err := domain.ParseField(req.Field)
	if err != nil {
		writeError(w, r, err)
		return
	}
	eff, err := h.Cells.SetField(r.Context(), req.RoomTypeID, req.Date, field, req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cellResponse{RoomTypeID: req.RoomTypeID, Date: req.Date, Effective: eff})
}

type bulkRequest struct {
	RoomTypeID string      `json:"room_type_id"`
	StartDate  domain.Date `json:"start_date"`
	EndDate    domain.Date `json:"end_date"`
	domain.Patch
}

func (h *Handlers) bulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RoomTypeID == "" {
		writeError(w, r, errors.Wrap(domain.ErrValidation, "room_type_id is required"))
		return
	}
	res, err := h.Bulk.ApplyRange(r.Context(), req.RoomTypeID, req.StartDate, req.EndDate, req.Patch)
	if err != nil {
		p := problemFor(err)
		if res.Updated > 0 || p.Status >= 500 {
			p.OperationID = res.OperationID
			p.Updated = &res.Updated
			log.Error().Err(err).Str("operation_id", res.OperationID).Int("updated", res.Updated).
				Msg("bulk update failed")
		}
		writeProblem(w, p)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
