package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ibalodis/fieldsignal/internal/common"
	"github.com/ibalodis/fieldsignal/internal/server/models"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type presignUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type presignDownloadResponse struct {
	URL string `json:"url"`
}

// reportPayload mirrors the payload object the client queues locally.
type reportPayload struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Description     string  `json:"description"`
	Severity        string  `json:"severity"`
	HazardType      string  `json:"hazard_type"`
	Urgency         string  `json:"urgency"`
	LocationLabel   string  `json:"location_label"`
	ReporterName    string  `json:"reporter_name"`
	ReporterContact string  `json:"reporter_contact"`
}

type submitReportRequest struct {
	Payload   reportPayload `json:"payload"`
	MediaKeys []string      `json:"media_keys"`
	UserID    string        `json:"user_id"`
}

type submitReportResponse struct {
	ID string `json:"id"`
}

type reportItem struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	Payload    reportPayload `json:"payload"`
	MediaKeys  []string      `json:"media_keys"`
	CreatedAt  time.Time     `json:"created_at"`
	ReceivedAt time.Time     `json:"received_at"`
}

const defaultListLimit = 100

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Error(r.Context(), "register failed", "error", err)
		http.Error(w, "registration failed", http.StatusConflict)
		return
	}

	h.writeJSON(w, http.StatusCreated, registerResponse{ID: user.ID})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error(r.Context(), "login failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

func (h *Handler) presignUpload(w http.ResponseWriter, r *http.Request) {
	key, url, err := h.media.GetPresignedPutURL(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "presign upload failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, presignUploadResponse{Key: key, URL: url})
}

func (h *Handler) presignDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	url, err := h.media.GetPresignedGetURL(r.Context(), key)
	if err != nil {
		h.logger.Error(r.Context(), "presign download failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, presignDownloadResponse{URL: url})
}

func (h *Handler) submitReport(w http.ResponseWriter, r *http.Request) {
	var req submitReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Payload.Description == "" {
		http.Error(w, "description is required", http.StatusUnprocessableEntity)
		return
	}

	// The authenticated subject wins over whatever user id the body carries.
	report := &models.Report{
		UserID:          userIDFromContext(r.Context()),
		Latitude:        req.Payload.Latitude,
		Longitude:       req.Payload.Longitude,
		Description:     req.Payload.Description,
		Severity:        req.Payload.Severity,
		HazardType:      req.Payload.HazardType,
		Urgency:         req.Payload.Urgency,
		LocationLabel:   req.Payload.LocationLabel,
		ReporterName:    req.Payload.ReporterName,
		ReporterContact: req.Payload.ReporterContact,
		MediaKeys:       req.MediaKeys,
		CreatedAt:       time.Now(),
	}

	id, err := h.reports.Accept(r.Context(), report)
	if err != nil {
		h.logger.Error(r.Context(), "report intake failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, submitReportResponse{ID: id})
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	items, err := h.reports.List(r.Context(), limit)
	if err != nil {
		h.logger.Error(r.Context(), "report listing failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	result := make([]reportItem, 0, len(items))
	for _, item := range items {
		result = append(result, reportItem{
			ID:     item.ID,
			UserID: item.UserID,
			Payload: reportPayload{
				Latitude:        item.Latitude,
				Longitude:       item.Longitude,
				Description:     item.Description,
				Severity:        item.Severity,
				HazardType:      item.HazardType,
				Urgency:         item.Urgency,
				LocationLabel:   item.LocationLabel,
				ReporterName:    item.ReporterName,
				ReporterContact: item.ReporterContact,
			},
			MediaKeys:  item.MediaKeys,
			CreatedAt:  item.CreatedAt,
			ReceivedAt: item.ReceivedAt,
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error(context.Background(), "response encoding failed", "error", err)
	}
}
