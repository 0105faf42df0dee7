package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/catalog"
	"github.com/mamadbah2/stockscan/internal/domain/models"
	"github.com/mamadbah2/stockscan/internal/service/scanning"
)

// maxExactInteger is the largest integer a float64 holds exactly.
const maxExactInteger = 1 << 53

// HistoryReader exposes the committed adjustments for display.
type HistoryReader interface {
	Recent(n int) []models.HistoryEntry
	Len() int
}

// ScanHandler exposes the scan session controller over HTTP.
type ScanHandler struct {
	ctrl    *scanning.Controller
	history HistoryReader
	catalog catalog.Lister
	logger  *zap.Logger
}

// NewScanHandler constructs the HTTP handler adapter. lister may be nil when the
// configured catalog cannot enumerate its items.
func NewScanHandler(ctrl *scanning.Controller, history HistoryReader, lister catalog.Lister, logger *zap.Logger) *ScanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanHandler{ctrl: ctrl, history: history, catalog: lister, logger: logger}
}

type scanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

type deltaRequest struct {
	Quantity json.RawMessage `json:"quantity" binding:"required"`
}

type commitRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// Scan opens a session for a payload produced by a scanning device.
func (h *ScanHandler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid scan payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if strings.TrimSpace(req.Payload) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload must not be blank"})
		return
	}

	session, ok := h.ctrl.OnDecode(c.Request.Context(), req.Payload)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "a scan session is already pending", "session": session})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// Session returns the current session state.
func (h *ScanHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctrl.Snapshot())
}

// SetDelta updates the pending quantity. The quantity may be sent as a JSON number or
// as the raw text an operator typed.
func (h *ScanHandler) SetDelta(c *gin.Context) {
	var req deltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid delta payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if !h.ctrl.SetDeltaInput(c.Request.Context(), quantityText(req.Quantity)) {
		c.JSON(http.StatusConflict, gin.H{"error": "no pending scan session"})
		return
	}

	c.JSON(http.StatusOK, h.ctrl.Snapshot())
}

// Commit applies the pending delta.
func (h *ScanHandler) Commit(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid commit payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	direction, err := models.ParseDirection(req.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, ok := h.ctrl.Commit(c.Request.Context(), direction)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no pending scan session"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// Cancel discards the pending session.
func (h *ScanHandler) Cancel(c *gin.Context) {
	if !h.ctrl.Cancel(c.Request.Context()) {
		c.JSON(http.StatusConflict, gin.H{"error": "no pending scan session"})
		return
	}
	c.Status(http.StatusNoContent)
}

// History lists committed adjustments, newest first.
func (h *ScanHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   h.history.Len(),
		"entries": h.history.Recent(limit),
	})
}

// Catalog lists catalog items, optionally filtered by ?search=.
func (h *ScanHandler) Catalog(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "catalog listing unavailable"})
		return
	}

	items, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing catalog", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": catalog.Filter(items, c.Query("search"))})
}

// quantityText turns the request quantity into the text handed to the controller.
// Whole JSON numbers such as 25.0 or 1e2 are written back as plain integers.
func quantityText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil && number == math.Trunc(number) && math.Abs(number) <= maxExactInteger {
		return strconv.FormatInt(int64(number), 10)
	}
	return strings.TrimSpace(string(raw))
}
