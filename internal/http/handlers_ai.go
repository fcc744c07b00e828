package http

import (
	"net/http"

	"fintrack/internal/core"
)

type scanBillRequest struct {
	ImageURL    string `json:"imageUrl"`
	ImageBase64 string `json:"imageBase64"`
}

func (s *Server) handleScanBill(w http.ResponseWriter, r *http.Request) {
	var req scanBillRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	scan, err := s.scans.ScanBill(r.Context(), userID(r), req.ImageURL, req.ImageBase64)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if scan.Status == core.ScanPending {
		status = http.StatusAccepted
	}
	s.respond(w, status, "", scan)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	scan, err := s.scans.GetScan(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", scan)
}

type autoCategorizeRequest struct {
	Description string `json:"description"`
	Merchant    string `json:"merchant"`
}

func (s *Server) handleAutoCategorize(w http.ResponseWriter, r *http.Request) {
	var req autoCategorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Description == "" {
		s.respondError(w, r, badRequest("description is required"))
		return
	}
	name, err := s.scans.AutoCategorize(r.Context(), userID(r), req.Description, req.Merchant)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]string{"categoryName": name})
}
