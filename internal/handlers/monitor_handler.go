package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"bpfmon/internal/preflight"
	"bpfmon/internal/service"
)

type MonitorHandler struct {
	m         *service.Monitor
	preflight func() preflight.Report
}

func NewMonitorHandler(m *service.Monitor) *MonitorHandler {
	return &MonitorHandler{
		m: m,
		preflight: func() preflight.Report {
			return preflight.Run(m.Catalog())
		},
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type StartRequest struct {
	Tool string `json:"tool"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("Error encoding JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, err error, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Message: message,
	})
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"), r.Method+" is not supported on "+r.URL.Path)
}

func (h *MonitorHandler) GetTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.m.Tools())
}

func (h *MonitorHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.m.Status())
}

func (h *MonitorHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if req.Tool == "" {
		writeError(w, http.StatusBadRequest, errors.New("tool is required"), "Invalid request body")
		return
	}

	if err := h.m.Start(req.Tool); err != nil {
		if errors.Is(err, service.ErrUnknownTool) {
			writeError(w, http.StatusNotFound, err, "Tool not found: "+req.Tool)
			return
		}
		writeError(w, http.StatusInternalServerError, err, "Failed to start tool")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Status:  "started",
		Message: "Tool " + req.Tool + " started successfully",
	})
}

func (h *MonitorHandler) StopSession(w http.ResponseWriter, r *http.Request) {
	if err := h.m.Stop(); err != nil {
		writeError(w, http.StatusInternalServerError, err, "Failed to stop tool")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Status: "stopped"})
}

func (h *MonitorHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	h.m.Clear()
	writeJSON(w, http.StatusOK, SuccessResponse{Status: "cleared"})
}

func (h *MonitorHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, err, "Invalid since parameter")
			return
		}
		since = n
	}

	writeJSON(w, http.StatusOK, h.m.Rows(since))
}

func (h *MonitorHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := h.m.Graph()
	if err != nil {
		var gerr *service.GraphDataError
		if errors.As(err, &gerr) {
			writeError(w, http.StatusUnprocessableEntity, err, "Cannot plot the current table")
			return
		}
		writeError(w, http.StatusInternalServerError, err, "Failed to build graph")
		return
	}

	writeJSON(w, http.StatusOK, g)
}

func (h *MonitorHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.m.Logs(limit, q.Get("level"), q.Get("tool")))
}

func (h *MonitorHandler) GetPreflight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.preflight())
}
