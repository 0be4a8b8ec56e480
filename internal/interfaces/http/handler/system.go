package handler

import (
	"time"

	"github.com/bookkeep/backend/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
)

// SystemHandler handles operational endpoints
type SystemHandler struct {
	BaseHandler
	store   *persistence.LedgerStore
	started time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(store *persistence.LedgerStore) *SystemHandler {
	return &SystemHandler{store: store, started: time.Now()}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/ping", h.Ping)
		system.GET("/health", h.Health)
	}
}

// Ping handles GET /system/ping
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{"message": "pong"})
}

// HealthResponse reports service health and ledger state
type HealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Invoices int    `json:"invoices"`
	Expenses int    `json:"expenses"`
	Dirty    bool   `json:"dirty"`
}

// Health handles GET /system/health
func (h *SystemHandler) Health(c *gin.Context) {
	invoices, expenses := h.store.Counts()
	h.Success(c, HealthResponse{
		Status:   "ok",
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		Invoices: invoices,
		Expenses: expenses,
		Dirty:    h.store.Dirty(),
	})
}
