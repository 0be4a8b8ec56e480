package handler

import (
	ledgerapp "github.com/bookkeep/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// ExpenseHandler handles expense endpoints
type ExpenseHandler struct {
	BaseHandler
	service *ledgerapp.LedgerService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(service *ledgerapp.LedgerService) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// RegisterRoutes registers expense routes
func (h *ExpenseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	expenses := rg.Group("/expenses")
	{
		expenses.POST("", h.Create)
		expenses.GET("", h.List)
		expenses.GET("/:id", h.Get)
		expenses.PUT("/:id", h.Update)
		expenses.DELETE("/:id", h.Delete)
	}
}

// Create handles POST /expenses
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req ledgerapp.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.CreateExpense(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List handles GET /expenses
func (h *ExpenseHandler) List(c *gin.Context) {
	expenses := h.service.ListExpenses(c.Request.Context())
	h.SuccessWithCount(c, expenses, len(expenses))
}

// Get handles GET /expenses/:id
func (h *ExpenseHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.service.GetExpense(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update handles PUT /expenses/:id
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req ledgerapp.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.UpdateExpense(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /expenses/:id
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.service.DeleteExpense(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
