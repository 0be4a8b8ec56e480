package handler

import (
	"net/http"

	reportapp "github.com/bookkeep/backend/internal/application/report"
	reportdomain "github.com/bookkeep/backend/internal/domain/report"
	"github.com/bookkeep/backend/internal/domain/shared"
	"github.com/bookkeep/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles aggregation and export endpoints
type ReportHandler struct {
	BaseHandler
	service *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// RegisterRoutes registers report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/totals-by-category", h.TotalsByCategory)
		reports.GET("/series", h.Series)
		reports.GET("/net-position", h.NetPosition)
		reports.GET("/dashboard", h.Dashboard)
		reports.GET("/export/csv", h.ExportCSV)
	}
}

// parseRange reads optional from/to query params as an inclusive range
func parseRange(c *gin.Context) (valueobject.DateRange, error) {
	var from, to *valueobject.Date
	if raw := c.Query("from"); raw != "" {
		d, err := valueobject.ParseDate(raw)
		if err != nil {
			return valueobject.DateRange{}, shared.NewValidationError("Invalid from date: " + raw)
		}
		from = &d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := valueobject.ParseDate(raw)
		if err != nil {
			return valueobject.DateRange{}, shared.NewValidationError("Invalid to date: " + raw)
		}
		to = &d
	}
	return valueobject.NewDateRange(from, to), nil
}

// kindParam reads the kind query param, defaulting to expenses
func kindParam(c *gin.Context) reportdomain.RecordKind {
	kind := c.Query("kind")
	if kind == "" {
		return reportdomain.RecordKindExpense
	}
	return reportdomain.RecordKind(kind)
}

// TotalsByCategory handles GET /reports/totals-by-category
func (h *ReportHandler) TotalsByCategory(c *gin.Context) {
	rng, err := parseRange(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	totals, err := h.service.TotalsByCategory(c.Request.Context(), kindParam(c), rng)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithCount(c, totals, len(totals))
}

// Series handles GET /reports/series
func (h *ReportHandler) Series(c *gin.Context) {
	rng, err := parseRange(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	granularity := reportdomain.Granularity(c.DefaultQuery("granularity", "month"))

	buckets, err := h.service.SeriesByPeriod(c.Request.Context(), kindParam(c), granularity, rng)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithCount(c, buckets, len(buckets))
}

// NetPosition handles GET /reports/net-position
func (h *ReportHandler) NetPosition(c *gin.Context) {
	rng, err := parseRange(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.service.NetPosition(c.Request.Context(), rng))
}

// Dashboard handles GET /reports/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	h.Success(c, h.service.DashboardSummary(c.Request.Context()))
}

// ExportCSV handles GET /reports/export/csv
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="ledger.csv"`)
	c.Status(http.StatusOK)

	if err := h.service.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		// Headers are already on the wire, all we can do is log the
		// abort through gin's error list.
		_ = c.Error(err)
	}
}
