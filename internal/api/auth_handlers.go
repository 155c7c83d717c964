package api

import (
	"net/http"

	"github.com/splitfair/splitfair/internal/middleware"
	"github.com/splitfair/splitfair/internal/models"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleCallbackRequest struct {
	Code string `json:"code"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) respondWithToken(w http.ResponseWriter, status int, user *models.User) {
	token, err := s.jwt.Generate(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, authResponse{Token: token, User: user})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Email == "" || req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and username are required"})
		return
	}

	user, err := s.password.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondWithToken(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	user, err := s.password.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondWithToken(w, http.StatusOK, user)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "google login is not configured"})
		return
	}

	var req googleCallbackRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	user, err := s.google.Login(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondWithToken(w, http.StatusOK, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
