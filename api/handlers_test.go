package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allocraft/wheel-engine/api"
	"github.com/allocraft/wheel-engine/ledger"
	"github.com/allocraft/wheel-engine/wheel"
)

// =============================================================================
// TEST FIXTURE
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *ledger.Memory) {
	t.Helper()

	mem := ledger.NewMemory()
	col := wheel.NewCollection(nil)
	modal := wheel.NewModalController()
	eng := wheel.NewEngine(mem, modal, col.View, col.Apply)

	h := api.NewHandler(eng, col, mem, nil)
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, mem
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func createLot(t *testing.T, srv *httptest.Server) api.LotDTO {
	t.Helper()

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/lots/buy", map[string]any{
		"ticker": "AAPL",
		"price":  "150",
		"date":   "2025-01-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var dto api.LotDTO
	require.NoError(t, json.Unmarshal(raw, &dto))
	return dto
}

// =============================================================================
// LOT ENDPOINTS
// =============================================================================

func TestCreateLotBuy(t *testing.T) {
	srv, _ := newTestServer(t)

	dto := createLot(t, srv)
	assert.Equal(t, 1, dto.Number)
	assert.Equal(t, "AAPL", dto.Ticker)
	assert.Equal(t, "OPEN_UNCOVERED", dto.Status)
	assert.Equal(t, "$150.00", dto.CostBasis)
	require.Len(t, dto.Events, 1)
	assert.Equal(t, "BUY_SHARES", dto.Events[0].Type)
	assert.Equal(t, 100, dto.Events[0].Qty)
}

func TestCreateLotBuy_ValidationFailure(t *testing.T) {
	srv, mem := newTestServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/lots/buy", map[string]any{
		"ticker": "AAPL",
		"price":  "-150",
		"date":   "2025-01-10",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &errResp))
	assert.NotEmpty(t, errResp.Error)

	acts, _ := mem.Actions(context.Background())
	assert.Empty(t, acts, "rejected input must never reach the ledger")
}

func TestCreateLotBuy_MalformedDate(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/lots/buy", map[string]any{
		"ticker": "AAPL",
		"price":  "150",
		"date":   "10/01/2025",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateLotShortPut(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/lots/short-put", map[string]any{
		"ticker":        "MSFT",
		"strike":        "300",
		"expiry":        futureDate(14),
		"premium":       "4.2",
		"time_in_force": "GTC",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var dto api.LotDTO
	require.NoError(t, json.Unmarshal(raw, &dto))
	assert.Equal(t, "CASH_RESERVED", dto.Status)
	assert.Equal(t, "—", dto.CostBasis)
	require.NotNil(t, dto.Coverage)
	assert.Equal(t, "$300.00", dto.Coverage.Strike)
	assert.Equal(t, "OPEN", dto.Coverage.Status)
}

func TestListLots(t *testing.T) {
	srv, _ := newTestServer(t)
	createLot(t, srv)
	createLot(t, srv)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/lots", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dtos []api.LotDTO
	require.NoError(t, json.Unmarshal(raw, &dtos))
	require.Len(t, dtos, 2)
	assert.Equal(t, 1, dtos[0].Number)
	assert.Equal(t, 2, dtos[1].Number)
}

func TestSellCoveredCall(t *testing.T) {
	srv, _ := newTestServer(t)
	lot := createLot(t, srv)

	resp, raw := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/lots/%d/cover", srv.URL, lot.Number), map[string]any{
		"strike":        "160",
		"expiry":        futureDate(30),
		"limit_premium": "2.5",
		"time_in_force": "DAY",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var dto api.LotDTO
	require.NoError(t, json.Unmarshal(raw, &dto))
	assert.Equal(t, "OPEN_COVERED", dto.Status)
	require.NotNil(t, dto.Coverage)
	assert.Equal(t, "$160.00", dto.Coverage.Strike)
	assert.Equal(t, "$2.50", dto.Coverage.Premium)
	assert.Len(t, dto.Events, 2)
}

func TestSellCoveredCall_UnknownLot(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/lots/99/cover", map[string]any{
		"strike":        "160",
		"expiry":        futureDate(30),
		"limit_premium": "2.5",
		"time_in_force": "DAY",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSellCoveredCall_AlreadyCovered(t *testing.T) {
	srv, _ := newTestServer(t)
	lot := createLot(t, srv)

	body := map[string]any{
		"strike":        "160",
		"expiry":        futureDate(30),
		"limit_premium": "2.5",
		"time_in_force": "DAY",
	}
	url := fmt.Sprintf("%s/api/lots/%d/cover", srv.URL, lot.Number)

	resp, _ := doJSON(t, http.MethodPost, url, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, url, body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCloseCoveredCall_RevertsToUncovered(t *testing.T) {
	srv, _ := newTestServer(t)
	lot := createLot(t, srv)

	resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/lots/%d/cover", srv.URL, lot.Number), map[string]any{
		"strike":        "160",
		"expiry":        futureDate(30),
		"limit_premium": "2.5",
		"time_in_force": "DAY",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/lots/%d/close-call", srv.URL, lot.Number), map[string]any{
		"limit_debit": "0.4",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var dto api.LotDTO
	require.NoError(t, json.Unmarshal(raw, &dto))
	assert.Equal(t, "OPEN_UNCOVERED", dto.Status)
	assert.Len(t, dto.Events, 3)
}

func TestGetLotEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	lot := createLot(t, srv)

	resp, raw := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/lots/%d/events", srv.URL, lot.Number), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []api.EventDTO
	require.NoError(t, json.Unmarshal(raw, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "BUY_SHARES", events[0].Type)
	assert.NotEmpty(t, events[0].ID)
}

func TestGetLotEvents_InvalidNumber(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/lots/zero/events", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLedgerFailure_MapsToBadGateway(t *testing.T) {
	srv, mem := newTestServer(t)

	mem.SetError(fmt.Errorf("ledger unavailable"))
	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/lots/buy", map[string]any{
		"ticker": "AAPL",
		"price":  "150",
		"date":   "2025-01-10",
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &errResp))
	assert.Equal(t, "ledger unavailable", errResp.Error)
}

// =============================================================================
// MODAL ENDPOINTS
// =============================================================================

func TestModal_Lifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	lot := createLot(t, srv)

	// Nothing open yet.
	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/modal", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "null", string(raw))

	// Open the cover dialog.
	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/api/modal/open", map[string]any{
		"kind":       "cover",
		"lot_number": lot.Number,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var modal wheel.Modal
	require.NoError(t, json.Unmarshal(raw, &modal))
	assert.Equal(t, wheel.ModalCover, modal.Kind)
	assert.Equal(t, lot.Number, modal.LotNumber)

	// Opening another dialog replaces the first.
	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/api/modal/open", map[string]any{
		"kind":   "new",
		"ticker": "MSFT",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &modal))
	assert.Equal(t, wheel.ModalNewLot, modal.Kind)

	// Dismiss.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/modal", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/modal", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "null", string(raw))
}

func TestOpenModal_GuardRejectsWrongState(t *testing.T) {
	// Close-call dialog on an uncovered lot is not available.
	srv, _ := newTestServer(t)
	lot := createLot(t, srv)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/modal/open", map[string]any{
		"kind":       "closeCall",
		"lot_number": lot.Number,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestOpenModal_UnknownKind(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/modal/open", map[string]any{
		"kind": "export",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// LEDGER ENDPOINT
// =============================================================================

func TestListActions(t *testing.T) {
	srv, _ := newTestServer(t)

	// Empty journal renders as an empty array, not null.
	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/actions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(raw))

	createLot(t, srv)

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/actions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var acts []ledger.Action
	require.NoError(t, json.Unmarshal(raw, &acts))
	require.Len(t, acts, 1)
	assert.Equal(t, ledger.KindCreateLotBuy, acts[0].Kind)
	assert.Len(t, acts[0].EventIDs, 1)
}

// =============================================================================
// OPERATIONAL ENDPOINTS
// =============================================================================

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(raw))
}
