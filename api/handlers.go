/*
handlers.go - HTTP API handlers for the lot engine

PURPOSE:
  Exposes the lot engine via REST. Handles HTTP request/response and JSON
  shapes, delegates every decision to the engine.

ENDPOINTS:
  Lots:
    GET    /api/lots                      List lots
    GET    /api/lots/{number}/events      Event history for one lot
    POST   /api/lots/buy                  Create lot (outright purchase)
    POST   /api/lots/short-put            Create lot (cash-secured put)
    POST   /api/lots/{number}/cover       Sell covered call
    POST   /api/lots/{number}/close-call  Buy back call leg
    POST   /api/lots/{number}/close-put   Buy back short put
    POST   /api/lots/{number}/roll        Roll call leg

  Modal:
    GET    /api/modal                     Active dialog (null when none)
    POST   /api/modal/open                Open a dialog
    DELETE /api/modal                     Dismiss the dialog

  Ledger:
    GET    /api/actions                   Recorded action journal

ERROR HANDLING:
  - 400: Validation failures, malformed bodies/dates
  - 404: Unknown lot
  - 409: Action illegal for lot state, lot busy, submission pending
  - 502: Ledger rejected the submission (message passed through)

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/allocraft/wheel-engine/ledger"
	"github.com/allocraft/wheel-engine/metrics"
	"github.com/allocraft/wheel-engine/wheel"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine  *wheel.Engine
	Lots    *wheel.Collection
	Journal ledger.Journal
	Log     *slog.Logger
}

func NewHandler(engine *wheel.Engine, lots *wheel.Collection, journal ledger.Journal, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Engine: engine, Lots: lots, Journal: journal, Log: log}
}

// =============================================================================
// LOT HANDLERS
// =============================================================================

// ListLots returns all lots.
func (h *Handler) ListLots(w http.ResponseWriter, r *http.Request) {
	lots := h.Lots.View()
	dtos := make([]LotDTO, len(lots))
	for i, l := range lots {
		dtos[i] = toLotDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLotEvents returns the event history for one lot.
func (h *Handler) GetLotEvents(w http.ResponseWriter, r *http.Request) {
	number, ok := h.lotNumber(w, r)
	if !ok {
		return
	}
	l, found := h.Lots.Lot(number)
	if !found {
		writeError(w, http.StatusNotFound, "Lot not found", nil)
		return
	}
	dtos := make([]EventDTO, len(l.Events))
	for i, ev := range l.Events {
		dtos[i] = toEventDTO(ev)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLotBuy creates a lot from an outright share purchase.
func (h *Handler) CreateLotBuy(w http.ResponseWriter, r *http.Request) {
	var req CreateLotBuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := wheel.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	in := wheel.CreateLotBuyInput{Ticker: req.Ticker, Price: req.Price, Date: date, Fees: req.Fees}
	if err := h.Engine.CreateLotBuy(r.Context(), in); err != nil {
		h.actionError(w, r, err)
		return
	}

	h.refreshLotGauge()
	writeJSON(w, http.StatusCreated, h.latestLotDTO())
}

// CreateLotShortPut creates a lot by selling a cash-secured put.
func (h *Handler) CreateLotShortPut(w http.ResponseWriter, r *http.Request) {
	var req CreateLotShortPutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	expiry, err := wheel.ParseDate(req.Expiry)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expiry", err)
		return
	}

	in := wheel.CreateLotShortPutInput{
		Ticker:      req.Ticker,
		Strike:      req.Strike,
		Expiry:      expiry,
		Premium:     req.Premium,
		TimeInForce: req.TimeInForce,
		Fees:        req.Fees,
	}
	if err := h.Engine.CreateLotShortPut(r.Context(), in); err != nil {
		h.actionError(w, r, err)
		return
	}

	h.refreshLotGauge()
	writeJSON(w, http.StatusCreated, h.latestLotDTO())
}

// SellCoveredCall writes a call against a lot.
func (h *Handler) SellCoveredCall(w http.ResponseWriter, r *http.Request) {
	number, ok := h.lotNumber(w, r)
	if !ok {
		return
	}
	var req SellCoveredCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	expiry, err := wheel.ParseDate(req.Expiry)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expiry", err)
		return
	}

	in := wheel.SellCoveredCallInput{
		LotNumber:    number,
		Strike:       req.Strike,
		Expiry:       expiry,
		LimitPremium: req.LimitPremium,
		TimeInForce:  req.TimeInForce,
		Fees:         req.Fees,
	}
	if err := h.Engine.SellCoveredCall(r.Context(), in); err != nil {
		h.actionError(w, r, err)
		return
	}

	h.refreshLotGauge()
	h.writeLot(w, number)
}

// CloseCoveredCall buys back the lot's call leg.
func (h *Handler) CloseCoveredCall(w http.ResponseWriter, r *http.Request) {
	number, ok := h.lotNumber(w, r)
	if !ok {
		return
	}
	var req CloseCoveredCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := wheel.CloseCoveredCallInput{
		LotNumber:  number,
		LimitDebit: req.LimitDebit,
		Fees:       req.Fees,
		Notes:      req.Notes,
	}
	if err := h.Engine.CloseCoveredCall(r.Context(), in); err != nil {
		h.actionError(w, r, err)
		return
	}

	h.refreshLotGauge()
	h.writeLot(w, number)
}

// RollCoveredCall rolls the lot's call leg to a new strike/expiry.
func (h *Handler) RollCoveredCall(w http.ResponseWriter, r *http.Request) {
	number, ok := h.lotNumber(w, r)
	if !ok {
		return
	}
	var req RollCoveredCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	expiry, err := wheel.ParseDate(req.Open.Expiry)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expiry", err)
		return
	}

	in := wheel.RollCoveredCallInput{
		LotNumber: number,
		Close:     wheel.RollCloseLeg{LimitDebit: req.Close.LimitDebit},
		Open: wheel.RollOpenLeg{
			Strike:       req.Open.Strike,
			Expiry:       expiry,
			LimitPremium: req.Open.LimitPremium,
			TimeInForce:  req.Open.TimeInForce,
		},
	}
	if err := h.Engine.RollCoveredCall(r.Context(), in); err != nil {
		h.actionError(w, r, err)
		return
	}

	h.refreshLotGauge()
	h.writeLot(w, number)
}

// CloseShortPut buys back the lot's short put.
func (h *Handler) CloseShortPut(w http.ResponseWriter, r *http.Request) {
	number, ok := h.lotNumber(w, r)
	if !ok {
		return
	}
	var req ClosePutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	tradeDate, err := wheel.ParseDate(req.TradeDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid trade_date", err)
		return
	}

	in := wheel.ClosePutInput{
		LotNumber:  number,
		TradeDate:  tradeDate,
		LimitDebit: req.LimitDebit,
		Contracts:  req.Contracts,
		Fees:       req.Fees,
		Notes:      req.Notes,
	}
	if err := h.Engine.CloseShortPut(r.Context(), in); err != nil {
		h.actionError(w, r, err)
		return
	}

	h.refreshLotGauge()
	h.writeLot(w, number)
}

// =============================================================================
// MODAL HANDLERS
// =============================================================================

// GetModal returns the active dialog, or null.
func (h *Handler) GetModal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.Modal())
}

// OpenModal opens an action dialog for a lot (or the new-lot dialog).
func (h *Handler) OpenModal(w http.ResponseWriter, r *http.Request) {
	var req OpenModalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var err error
	switch wheel.ModalKind(req.Kind) {
	case wheel.ModalCover:
		err = h.Engine.OpenCover(req.LotNumber)
	case wheel.ModalCloseCall:
		err = h.Engine.OpenCloseCall(req.LotNumber)
	case wheel.ModalClosePut:
		err = h.Engine.OpenClosePut(req.LotNumber)
	case wheel.ModalRoll:
		err = h.Engine.OpenRoll(req.LotNumber)
	case wheel.ModalNewLot:
		h.Engine.OpenNewLot(req.Ticker)
	default:
		writeError(w, http.StatusBadRequest, "Unknown modal kind", nil)
		return
	}
	if err != nil {
		h.actionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Engine.Modal())
}

// CloseModal dismisses the active dialog.
func (h *Handler) CloseModal(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.CloseModal(); err != nil {
		h.actionError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListActions returns the recorded action journal.
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	acts, err := h.Journal.Actions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load actions", err)
		return
	}
	if acts == nil {
		acts = []ledger.Action{}
	}
	writeJSON(w, http.StatusOK, acts)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) lotNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid lot number", err)
		return 0, false
	}
	return number, true
}

func (h *Handler) writeLot(w http.ResponseWriter, number int) {
	l, found := h.Lots.Lot(number)
	if !found {
		writeError(w, http.StatusNotFound, "Lot not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toLotDTO(l))
}

// latestLotDTO returns the most recently created lot (highest number).
func (h *Handler) latestLotDTO() LotDTO {
	lots := h.Lots.View()
	latest := lots[0]
	for _, l := range lots[1:] {
		if l.Number > latest.Number {
			latest = l
		}
	}
	return toLotDTO(latest)
}

// actionError maps engine errors to HTTP status codes. Ledger rejections
// pass their message through unchanged.
func (h *Handler) actionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, wheel.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case errors.Is(err, wheel.ErrLotNotFound):
		writeError(w, http.StatusNotFound, "Lot not found", err)
	case errors.Is(err, wheel.ErrLotBusy),
		errors.Is(err, wheel.ErrActionUnavailable),
		errors.Is(err, wheel.ErrSubmissionPending):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		h.Log.Error("ledger submission failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadGateway, err.Error(), nil)
	}
}

func (h *Handler) refreshLotGauge() {
	counts := map[wheel.LotStatus]int{
		wheel.StatusOpenUncovered: 0,
		wheel.StatusOpenCovered:   0,
		wheel.StatusCashReserved:  0,
		wheel.StatusClosed:        0,
	}
	for _, l := range h.Lots.View() {
		counts[l.Status()]++
	}
	for status, n := range counts {
		metrics.OpenLots.WithLabelValues(string(status)).Set(float64(n))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
