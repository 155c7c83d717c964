package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/splitfair/splitfair/internal/export"
	"github.com/splitfair/splitfair/internal/middleware"
	"github.com/splitfair/splitfair/internal/models"
	"github.com/splitfair/splitfair/internal/service"
)

type createSessionRequest struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	session, err := s.sessions.CreateSession(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.Participants)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("includeArchived") == "true"

	sessions, err := s.sessions.ListSessions(r.Context(), middleware.GetUserID(r.Context()), includeArchived)
	if err != nil {
		writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.GetSession(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

func (s *Server) handleArchiveSession(w http.ResponseWriter, r *http.Request) {
	req := archiveRequest{Archived: true}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, err)
			return
		}
	}

	if err := s.sessions.ArchiveSession(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), req.Archived); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"archived": req.Archived})
}

type amountsRequest struct {
	TaxAmount   float64 `json:"taxAmount"`
	TotalAmount float64 `json:"totalAmount"`
}

func (s *Server) handleSetAmounts(w http.ResponseWriter, r *http.Request) {
	var req amountsRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	session, err := s.sessions.SetSessionAmounts(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), req.TaxAmount, req.TotalAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type addParticipantRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	var req addParticipantRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	participant, err := s.sessions.AddParticipant(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, participant)
}

type itemRequest struct {
	Name       string   `json:"name"`
	Quantity   int      `json:"quantity"`
	Price      float64  `json:"price"`
	Taxable    bool     `json:"taxable"`
	AssignedTo []string `json:"assignedTo"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	item := &models.LineItem{
		Name:       req.Name,
		Quantity:   req.Quantity,
		Price:      req.Price,
		Taxable:    req.Taxable,
		AssignedTo: req.AssignedTo,
	}
	item, err := s.sessions.AddItem(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	item := &models.LineItem{
		ID:       r.PathValue("itemID"),
		Name:     req.Name,
		Quantity: req.Quantity,
		Price:    req.Price,
		Taxable:  req.Taxable,
	}
	if err := s.sessions.UpdateItem(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), item); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	err := s.sessions.DeleteItem(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRequest struct {
	ParticipantIDs []string `json:"participantIds"`
}

func (s *Server) handleAssignItem(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	err := s.sessions.AssignItem(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), r.PathValue("itemID"), req.ParticipantIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"assigned": len(req.ParticipantIDs)})
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	calc, err := s.sessions.Calculate(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

type settleSessionRequest struct {
	Settlements []struct {
		ParticipantID string  `json:"participantId"`
		Amount        float64 `json:"amount"`
		Settled       bool    `json:"settled"`
	} `json:"settlements"`
}

func (s *Server) handleSettleSession(w http.ResponseWriter, r *http.Request) {
	var req settleSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	entries := make([]service.SettlementEntry, len(req.Settlements))
	for i, st := range req.Settlements {
		entries[i] = service.SettlementEntry{
			ParticipantID: st.ParticipantID,
			Amount:        st.Amount,
			Settled:       st.Settled,
		}
	}

	session, err := s.settlements.SettleSession(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), entries)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleExportCSV streams the flat settlement rows for the user's sessions,
// optionally bounded by startDate/endDate (YYYY-MM-DD, inclusive).
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sessions, err := s.sessions.ListSessions(r.Context(), middleware.GetUserID(r.Context()), true)
	if err != nil {
		writeError(w, err)
		return
	}

	var filtered []models.Session
	for _, session := range sessions {
		created := time.Unix(session.CreatedAt, 0).UTC()
		if !start.IsZero() && created.Before(start) {
			continue
		}
		if !end.IsZero() && !created.Before(end) {
			continue
		}
		filtered = append(filtered, *session)
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, filtered); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(time.Now())))
	w.Write(buf.Bytes())
}

// parseDateRange parses inclusive YYYY-MM-DD bounds. The end bound covers the
// whole named day.
func parseDateRange(startStr, endStr string) (start, end time.Time, err error) {
	if startStr != "" {
		start, err = time.ParseInLocation("2006-01-02", startStr, time.UTC)
		if err != nil {
			return start, end, fmt.Errorf("invalid startDate %q", startStr)
		}
	}
	if endStr != "" {
		end, err = time.ParseInLocation("2006-01-02", endStr, time.UTC)
		if err != nil {
			return start, end, fmt.Errorf("invalid endDate %q", endStr)
		}
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}
