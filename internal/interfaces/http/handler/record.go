package handler

import (
	"strconv"

	ledgerapp "github.com/bookkeep/backend/internal/application/ledger"
	"github.com/bookkeep/backend/internal/domain/shared"
	"github.com/bookkeep/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
)

// RecordHandler serves cross-cutting ledger endpoints: the unified
// record query and the snapshot flush.
type RecordHandler struct {
	BaseHandler
	service *ledgerapp.LedgerService
	query   *ledgerapp.QueryService
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(service *ledgerapp.LedgerService, query *ledgerapp.QueryService) *RecordHandler {
	return &RecordHandler{service: service, query: query}
}

// RegisterRoutes registers record routes
func (h *RecordHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/records", h.Query)
	rg.POST("/flush", h.Flush)
}

// parseCriteria reads the query string into ledger query criteria
func parseCriteria(c *gin.Context) (ledgerapp.Criteria, error) {
	criteria := ledgerapp.Criteria{
		Kind:     c.Query("kind"),
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Text:     c.Query("text"),
		SortBy:   c.Query("sort_by"),
	}

	if raw := c.Query("sort_desc"); raw != "" {
		desc, err := strconv.ParseBool(raw)
		if err != nil {
			return criteria, shared.NewValidationError("Invalid sort_desc value: " + raw)
		}
		criteria.SortDescending = desc
	}
	if raw := c.Query("date_from"); raw != "" {
		d, err := valueobject.ParseDate(raw)
		if err != nil {
			return criteria, shared.NewValidationError("Invalid date_from: " + raw)
		}
		criteria.DateFrom = &d
	}
	if raw := c.Query("date_to"); raw != "" {
		d, err := valueobject.ParseDate(raw)
		if err != nil {
			return criteria, shared.NewValidationError("Invalid date_to: " + raw)
		}
		criteria.DateTo = &d
	}
	return criteria, nil
}

// Query handles GET /records
func (h *RecordHandler) Query(c *gin.Context) {
	criteria, err := parseCriteria(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	views, err := h.query.Query(c.Request.Context(), criteria)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithCount(c, views, len(views))
}

// FlushResponse reports the outcome of a flush request
type FlushResponse struct {
	Saved bool `json:"saved"`
}

// Flush handles POST /flush
func (h *RecordHandler) Flush(c *gin.Context) {
	saved, err := h.service.Flush(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, FlushResponse{Saved: saved})
}
