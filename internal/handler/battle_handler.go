package handler

import (
	"net/http"

	"github.com/forgehex/hexwar/api/internal/service"
)

// BattleHandler exposes battle lifecycle and command-submission
// endpoints, the analogue of the teacher's GameHandler/OrderHandler/
// PhaseHandler trio collapsed onto BattleService.
type BattleHandler struct {
	svc *service.BattleService
}

// NewBattleHandler creates a BattleHandler.
func NewBattleHandler(svc *service.BattleService) *BattleHandler {
	return &BattleHandler{svc: svc}
}

// CreateBattle handles POST /api/v1/battles
func (h *BattleHandler) CreateBattle(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBattleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.svc.CreateBattle(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// GetBattle handles GET /api/v1/battles/{id}
func (h *BattleHandler) GetBattle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.svc.GetBattle(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "battle not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListActive handles GET /api/v1/battles/active
func (h *BattleHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	battles, err := h.svc.ListActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, battles)
}

// ListFinished handles GET /api/v1/battles/finished
func (h *BattleHandler) ListFinished(w http.ResponseWriter, r *http.Request) {
	battles, err := h.svc.ListFinished(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, battles)
}

// StartBattle handles POST /api/v1/battles/{id}/start
func (h *BattleHandler) StartBattle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.svc.StartBattle(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SubmitCommand handles POST /api/v1/battles/{id}/commands
func (h *BattleHandler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req service.CommandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.svc.SubmitCommand(r.Context(), id, req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// ListCommands handles GET /api/v1/battles/{id}/commands
func (h *BattleHandler) ListCommands(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rows, err := h.svc.ListCommands(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
