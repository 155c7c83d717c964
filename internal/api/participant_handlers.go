package api

import (
	"net/http"

	"github.com/splitfair/splitfair/internal/calculator"
	"github.com/splitfair/splitfair/internal/middleware"
	"github.com/splitfair/splitfair/internal/models"
)

func (s *Server) handleListGlobalParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := s.sessions.ListGlobalParticipants(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if participants == nil {
		participants = []*models.GlobalParticipant{}
	}
	writeJSON(w, http.StatusOK, participants)
}

type globalParticipantRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddGlobalParticipant(w http.ResponseWriter, r *http.Request) {
	var req globalParticipantRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	participant, err := s.sessions.AddGlobalParticipant(r.Context(), middleware.GetUserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, participant)
}

func (s *Server) handleSettlementSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.settlements.SettlementSummary(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []calculator.SettlementSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

type settleParticipantRequest struct {
	ParticipantName string `json:"participantName"`
}

func (s *Server) handleSettleParticipant(w http.ResponseWriter, r *http.Request) {
	var req settleParticipantRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	count, err := s.settlements.SettleParticipant(r.Context(), middleware.GetUserID(r.Context()), req.ParticipantName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sessionsSettled": count})
}
