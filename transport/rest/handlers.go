package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
)

type moveRequest struct {
	SquareID *int `json:"squareId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write pong", "error", err)
	}
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.gameService.Snapshot(r.Context())
	that.respond(w, r, "handleGetGame", snapshot, err)
}

func (that *Server) handlePlayerMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SquareID == nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "squareId is required"})
		return
	}

	snapshot, err := that.gameService.PlayerMove(r.Context(), *req.SquareID)
	that.respond(w, r, "handlePlayerMove", snapshot, err)
}

func (that *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.gameService.Reset(r.Context())
	that.respond(w, r, "handleReset", snapshot, err)
}

func (that *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.gameService.NewRound(r.Context())
	that.respond(w, r, "handleNewRound", snapshot, err)
}

func (that *Server) respond(w http.ResponseWriter, r *http.Request, method string, snapshot *entity.Snapshot, err error) {
	log := that.logger.With("method", method, "requestID", middleware.GetReqID(r.Context()))

	switch {
	case err == nil:
		that.writeJSON(w, http.StatusOK, snapshot)
	case errors.Is(err, apperror.ErrInvalidSquare):
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, apperror.ErrSquareOccupied), errors.Is(err, apperror.ErrRoundComplete):
		that.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		log.Error("request failed", "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
