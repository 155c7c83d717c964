package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/splitfair/splitfair/internal/ingest"
	"github.com/splitfair/splitfair/internal/middleware"
	"github.com/splitfair/splitfair/internal/models"
)

// maxReceiptSize caps uploaded receipt images at 10 MB.
const maxReceiptSize = 10 << 20

type receiptResponse struct {
	Session *models.Session     `json:"session"`
	Parsed  *ingest.ParseResult `json:"parsed"`
}

// handleReceiptUpload stores the uploaded image and replaces the session's
// items with the parsed contents. Parser failures degrade to an empty parse
// result so the user can fall back to manual entry; the upload itself still
// succeeds.
func (s *Server) handleReceiptUpload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := r.PathValue("sessionID")

	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("receipt")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "receipt file is required"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxReceiptSize))
	if err != nil {
		writeError(w, err)
		return
	}

	filename := uuid.New().String() + filepath.Ext(header.Filename)
	if err := s.saveReceipt(filename, image); err != nil {
		writeError(w, err)
		return
	}

	parsed := &ingest.ParseResult{}
	if s.parser != nil {
		result, err := s.parser.Parse(r.Context(), image, header.Header.Get("Content-Type"))
		if err != nil {
			s.logger.Warn("Receipt parsing failed, returning empty result",
				"session_id", sessionID, "error", err)
		} else {
			parsed = result
		}
	} else {
		s.logger.Warn("No receipt parser configured, returning empty result", "session_id", sessionID)
	}

	session, err := s.sessions.ApplyReceipt(r.Context(), userID, sessionID, filename,
		parsedToItems(parsed), parsed.Tax, parsed.Total)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptResponse{Session: session, Parsed: parsed})
}

type textReceiptRequest struct {
	Text string `json:"text"`
}

// handleReceiptText runs the heuristic line parser over raw OCR text, for
// clients that extract text on-device instead of uploading the image.
func (s *Server) handleReceiptText(w http.ResponseWriter, r *http.Request) {
	var req textReceiptRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "receipt text is required"})
		return
	}

	parsed := ingest.ParseText(req.Text)
	session, err := s.sessions.ApplyReceipt(r.Context(), middleware.GetUserID(r.Context()),
		r.PathValue("sessionID"), "", parsedToItems(parsed), parsed.Tax, parsed.Total)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptResponse{Session: session, Parsed: parsed})
}

type manualReceiptRequest struct {
	Items []struct {
		Name     string  `json:"name"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
		Taxable  bool    `json:"taxable"`
	} `json:"items"`
	TaxAmount   float64 `json:"taxAmount"`
	TotalAmount float64 `json:"totalAmount"`
}

// handleReceiptManual replaces the session's items with a hand-entered list,
// for receipts the parser could not read.
func (s *Server) handleReceiptManual(w http.ResponseWriter, r *http.Request) {
	var req manualReceiptRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	items := make([]*models.LineItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = &models.LineItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Taxable:  item.Taxable,
		}
	}

	session, err := s.sessions.ApplyReceipt(r.Context(), middleware.GetUserID(r.Context()),
		r.PathValue("sessionID"), "", items, req.TaxAmount, req.TotalAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) saveReceipt(filename string, image []byte) error {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.uploadDir, filename), image, 0o644)
}

func parsedToItems(parsed *ingest.ParseResult) []*models.LineItem {
	items := make([]*models.LineItem, len(parsed.Items))
	for i, item := range parsed.Items {
		items[i] = &models.LineItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Taxable:  item.Taxable,
		}
	}
	return items
}
