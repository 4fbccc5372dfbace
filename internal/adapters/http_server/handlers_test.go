package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "hotel_inventory/internal/adapters/http_server"
	"hotel_inventory/internal/app"
	"hotel_inventory/internal/domain"
	"hotel_inventory/internal/storage/memory"
)

type brokenStore struct{ *memory.Store }

func (brokenStore) PutOverride(context.Context, string, domain.Date, domain.Override) error {
	return domain.StorageFault(errors.New("connection refused"), "put override")
}

func newAPI(t *testing.T, store domain.InventoryStore) http.Handler {
	t.Helper()
	return newPacedAPI(t, store, 0, 5*time.Second)
}

// newPacedAPI limits bulk writes to writesPerSec and bounds requests by timeout.
func newPacedAPI(t *testing.T, store domain.InventoryStore, writesPerSec int, timeout time.Duration) http.Handler {
	t.Helper()
	cat, err := memory.NewCatalog(
		domain.RoomType{ID: "deluxe", Name: "Deluxe Room", BaseRate: 500000, DefaultAllotment: 5},
		domain.RoomType{ID: "suite", Name: "Garden Suite", BaseRate: 1200000, DefaultAllotment: 2},
	)
	require.NoError(t, err)
	if store == nil {
		store = memory.NewStore()
	}
	locks := memory.NewLocker()
	r := app.NewResolver(cat, store, 366)

	srv := server.New(timeout)
	srv.MountHandlers(&server.Handlers{
		Catalog:      cat,
		Resolver:     r,
		Cells:        app.NewCellEditor(r, store, locks),
		Bulk:         app.NewBulkEditor(r, store, locks, 366, writesPerSec),
		Availability: app.NewAvailability(cat, r, 30),
	})
	return srv.Mux()
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type day struct {
	Date      string `json:"date"`
	Allotment int    `json:"allotment"`
	Rate      int64  `json:"rate"`
	IsClosed  bool   `json:"is_closed"`
}

type problemBody struct {
	Title       string `json:"title"`
	Status      int    `json:"status"`
	OperationID string `json:"operation_id"`
	Updated     *int   `json:"updated"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRooms(t *testing.T) {
	h := newAPI(t, nil)

	rec := do(t, h, http.MethodGet, "/v1/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rooms := decode[[]domain.RoomType](t, rec)
	require.Len(t, rooms, 2)
	assert.Equal(t, "deluxe", rooms[0].ID)

	rec = do(t, h, http.MethodGet, "/v1/rooms/suite", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1200000), decode[domain.RoomType](t, rec).BaseRate)

	rec = do(t, h, http.MethodGet, "/v1/rooms/penthouse", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRoomInventory_DefaultsAndETag(t *testing.T) {
	h := newAPI(t, nil)

	rec := do(t, h, http.MethodGet, "/v1/rooms/deluxe/inventory?start_date=2024-02-28&end_date=2024-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	days := decode[[]day](t, rec)
	assert.Equal(t, []day{
		{Date: "2024-02-28", Allotment: 5, Rate: 500000},
		{Date: "2024-02-29", Allotment: 5, Rate: 500000},
		{Date: "2024-03-01", Allotment: 5, Rate: 500000},
	}, days)

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	req := httptest.NewRequest(http.MethodGet, "/v1/rooms/deluxe/inventory?start_date=2024-02-28&end_date=2024-03-01", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestRoomInventory_BadQueries(t *testing.T) {
	h := newAPI(t, nil)
	cases := map[string]int{
		"/v1/rooms/deluxe/inventory?start_date=2024-03-05&end_date=2024-03-01": http.StatusBadRequest,
		"/v1/rooms/deluxe/inventory?start_date=2024-13-01&end_date=2024-03-01": http.StatusBadRequest,
		"/v1/rooms/deluxe/inventory?end_date=2024-03-01":                       http.StatusBadRequest,
		"/v1/rooms/deluxe/inventory?start_date=2023-01-01&end_date=2024-12-31": http.StatusBadRequest,
		"/v1/rooms/nope/inventory?start_date=2024-03-01&end_date=2024-03-01":   http.StatusNotFound,
		"/v1/inventory?start_date=2024-03-05&end_date=2024-03-01":              http.StatusBadRequest,
	}
	for target, want := range cases {
		rec := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, want, rec.Code, target)
	}
}

func TestSetCell(t *testing.T) {
	h := newAPI(t, nil)

	rec := do(t, h, http.MethodPost, "/v1/admin/inventory",
		`{"room_type_id":"deluxe","date":"2024-06-10","field":"rate","value":450000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[struct {
		RoomTypeID string `json:"room_type_id"`
		day
	}](t, rec)
	assert.Equal(t, "deluxe", got.RoomTypeID)
	assert.Equal(t, day{Date: "2024-06-10", Allotment: 5, Rate: 450000}, got.day)

	rec = do(t, h, http.MethodPost, "/v1/admin/inventory",
		`{"room_type_id":"deluxe","date":"2024-06-10","field":"is_closed","value":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/rooms/deluxe/inventory?start_date=2024-06-10&end_date=2024-06-10", nil)
	assert.Equal(t, []day{{Date: "2024-06-10", Allotment: 5, Rate: 450000, IsClosed: true}}, decode[[]day](t, rec))
}

func TestSetCell_Rejects(t *testing.T) {
	h := newAPI(t, nil)
	cases := map[string]struct {
		body string
		want int
	}{
		"negative allotment": {`{"room_type_id":"deluxe","date":"2024-06-10","field":"allotment","value":-1}`, http.StatusBadRequest},
		"zero rate":          {`{"room_type_id":"deluxe","date":"2024-06-10","field":"rate","value":0}`, http.StatusBadRequest},
		"string allotment":   {`{"room_type_id":"deluxe","date":"2024-06-10","field":"allotment","value":"7"}`, http.StatusBadRequest},
		"unknown field":      {`{"room_type_id":"deluxe","date":"2024-06-10","field":"price","value":1}`, http.StatusBadRequest},
		"bad date":           {`{"room_type_id":"deluxe","date":"10/06/2024","field":"rate","value":1}`, http.StatusBadRequest},
		"missing date":       {`{"room_type_id":"deluxe","field":"rate","value":1}`, http.StatusBadRequest},
		"missing room":       {`{"date":"2024-06-10","field":"rate","value":1}`, http.StatusBadRequest},
		"unknown room":       {`{"room_type_id":"villa","date":"2024-06-10","field":"rate","value":1}`, http.StatusNotFound},
		"not json":           {`field=rate`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/admin/inventory", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}

	// nothing was materialized
	rec := do(t, h, http.MethodGet, "/v1/rooms/deluxe/inventory?start_date=2024-06-10&end_date=2024-06-10", nil)
	assert.Equal(t, []day{{Date: "2024-06-10", Allotment: 5, Rate: 500000}}, decode[[]day](t, rec))
}

func TestBulkUpdate_NullMeansUnchanged(t *testing.T) {
	h := newAPI(t, nil)

	rec := do(t, h, http.MethodPost, "/v1/admin/inventory",
		`{"room_type_id":"suite","date":"2024-07-02","field":"rate","value":990000}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/admin/inventory/bulk-update",
		`{"room_type_id":"suite","start_date":"2024-07-01","end_date":"2024-07-03","allotment":1,"rate":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[app.BulkResult](t, rec)
	assert.Equal(t, 3, res.Updated)
	assert.NotEmpty(t, res.OperationID)

	rec = do(t, h, http.MethodGet, "/v1/rooms/suite/inventory?start_date=2024-07-01&end_date=2024-07-03", nil)
	assert.Equal(t, []day{
		{Date: "2024-07-01", Allotment: 1, Rate: 1200000},
		{Date: "2024-07-02", Allotment: 1, Rate: 990000},
		{Date: "2024-07-03", Allotment: 1, Rate: 1200000},
	}, decode[[]day](t, rec))
}

func TestBulkUpdate_Rejects(t *testing.T) {
	h := newAPI(t, nil)
	cases := map[string]struct {
		body string
		want int
	}{
		"reversed":     {`{"room_type_id":"suite","start_date":"2024-07-09","end_date":"2024-07-01","is_closed":true}`, http.StatusBadRequest},
		"bad rate":     {`{"room_type_id":"suite","start_date":"2024-07-01","end_date":"2024-07-09","rate":-5}`, http.StatusBadRequest},
		"typed wrong":  {`{"room_type_id":"suite","start_date":"2024-07-01","end_date":"2024-07-09","is_closed":"yes"}`, http.StatusBadRequest},
		"unknown room": {`{"room_type_id":"villa","start_date":"2024-07-01","end_date":"2024-07-09","is_closed":true}`, http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/admin/inventory/bulk-update", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestBulkUpdate_StorageFault(t *testing.T) {
	h := newAPI(t, brokenStore{Store: memory.NewStore()})

	rec := do(t, h, http.MethodPost, "/v1/admin/inventory/bulk-update",
		`{"room_type_id":"deluxe","start_date":"2024-07-01","end_date":"2024-07-03","is_closed":true}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	p := decode[problemBody](t, rec)
	require.NotNil(t, p.Updated)
	assert.Equal(t, 0, *p.Updated)
	assert.NotEmpty(t, p.OperationID)
}

func TestBulkUpdate_DeadlineReportsProgress(t *testing.T) {
	h := newPacedAPI(t, nil, 20, 500*time.Millisecond)

	rec := do(t, h, http.MethodPost, "/v1/admin/inventory/bulk-update",
		`{"room_type_id":"deluxe","start_date":"2024-01-01","end_date":"2024-12-30","is_closed":true}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code, rec.Body.String())
	p := decode[problemBody](t, rec)
	require.NotNil(t, p.Updated)
	assert.Greater(t, *p.Updated, 0)
	assert.Less(t, *p.Updated, 365)
	assert.NotEmpty(t, p.OperationID)
}

func TestInventoryGrid(t *testing.T) {
	h := newAPI(t, nil)
	rec := do(t, h, http.MethodGet, "/v1/inventory?start_date=2024-01-01&end_date=2024-01-07", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	grid := decode[[]struct {
		RoomTypeID string `json:"room_type_id"`
		Days       []day  `json:"days"`
	}](t, rec)
	require.Len(t, grid, 2)
	assert.Equal(t, "deluxe", grid[0].RoomTypeID)
	assert.Len(t, grid[1].Days, 7)
	assert.Equal(t, 2, grid[1].Days[0].Allotment)
}

func TestAvailability(t *testing.T) {
	h := newAPI(t, nil)
	rec := do(t, h, http.MethodPost, "/v1/admin/inventory",
		`{"room_type_id":"deluxe","date":"2024-09-02","field":"allotment","value":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/availability?check_in=2024-09-01&check_out=2024-09-03", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Rooms []domain.RoomAvailability `json:"rooms"`
	}](t, rec)
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, "suite", body.Rooms[0].RoomType.ID)
	assert.Equal(t, int64(2400000), body.Rooms[0].TotalRate)

	rec = do(t, h, http.MethodGet, "/v1/availability?check_in=2024-09-01", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/availability?check_in=2024-09-03&check_out=2024-09-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec := do(t, newAPI(t, nil), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "ok"))
}
