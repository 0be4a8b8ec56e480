package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	ledgerapp "github.com/bookkeep/backend/internal/application/ledger"
	ledgerdomain "github.com/bookkeep/backend/internal/domain/ledger"
	reportapp "github.com/bookkeep/backend/internal/application/report"
	"github.com/bookkeep/backend/internal/infrastructure/persistence"
	"github.com/bookkeep/backend/internal/interfaces/http/dto"
	"github.com/bookkeep/backend/internal/interfaces/http/middleware"
	"github.com/bookkeep/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// nopSaver satisfies the snapshot contract without touching disk.
type nopSaver struct{}

func (nopSaver) Save(context.Context, ledgerdomain.Snapshot) error { return nil }

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	store := persistence.NewLedgerStore()
	logger := zap.NewNop()
	ledgerSvc := ledgerapp.NewLedgerService(store, nopSaver{}, logger)
	querySvc := ledgerapp.NewQueryService(store)
	reportSvc := reportapp.NewReportService(store, 0.10, logger)

	engine := gin.New()
	engine.Use(middleware.RequestID())

	r := router.NewRouter(engine)
	r.RegisterGroup("/ledger",
		NewInvoiceHandler(ledgerSvc),
		NewExpenseHandler(ledgerSvc),
		NewRecordHandler(ledgerSvc, querySvc),
	)
	r.Register(NewReportHandler(reportSvc))
	r.Register(NewSystemHandler(store))
	r.Setup()
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func invoiceBody() map[string]any {
	return map[string]any{
		"client_name": "Acme Corp",
		"issue_date":  "2024-03-01",
		"due_date":    "2024-03-31",
		"items": []map[string]any{
			{"description": "Consulting", "quantity": "2", "unit_price": "10.00"},
			{"description": "Support", "quantity": "1", "unit_price": "5.00"},
		},
	}
}

func createInvoice(t *testing.T, engine *gin.Engine) string {
	t.Helper()
	w := doJSON(t, engine, http.MethodPost, "/api/v1/ledger/invoices", invoiceBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]any)
	return data["id"].(string)
}

func TestInvoiceEndpoints(t *testing.T) {
	t.Run("create returns draft with total", func(t *testing.T) {
		engine := newTestRouter()
		w := doJSON(t, engine, http.MethodPost, "/api/v1/ledger/invoices", invoiceBody())
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "DRAFT", data["status"])
		assert.Equal(t, "25", data["total"])
	})

	t.Run("create with missing client is a validation error", func(t *testing.T) {
		engine := newTestRouter()
		body := invoiceBody()
		delete(body, "client_name")

		w := doJSON(t, engine, http.MethodPost, "/api/v1/ledger/invoices", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get unknown id returns 404", func(t *testing.T) {
		engine := newTestRouter()
		w := doJSON(t, engine, http.MethodGet, "/api/v1/ledger/invoices/4b9afc0e-2d72-4a6d-9f4c-000000000000", nil)
		require.Equal(t, http.StatusNotFound, w.Code)

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		engine := newTestRouter()
		w := doJSON(t, engine, http.MethodGet, "/api/v1/ledger/invoices/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("status transitions and illegal transition code", func(t *testing.T) {
		engine := newTestRouter()
		id := createInvoice(t, engine)
		statusPath := fmt.Sprintf("/api/v1/ledger/invoices/%s/status", id)

		w := doJSON(t, engine, http.MethodPost, statusPath, map[string]any{"status": "SENT"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doJSON(t, engine, http.MethodPost, statusPath, map[string]any{"status": "PAID"})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, engine, http.MethodPost, statusPath, map[string]any{"status": "SENT"})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInvalidTransition, resp.Error.Code)
	})

	t.Run("update and delete round trip", func(t *testing.T) {
		engine := newTestRouter()
		id := createInvoice(t, engine)
		path := "/api/v1/ledger/invoices/" + id

		body := invoiceBody()
		body["client_name"] = "Globex"
		w := doJSON(t, engine, http.MethodPut, path, body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doJSON(t, engine, http.MethodDelete, path, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, engine, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list reports count meta", func(t *testing.T) {
		engine := newTestRouter()
		createInvoice(t, engine)
		createInvoice(t, engine)

		w := doJSON(t, engine, http.MethodGet, "/api/v1/ledger/invoices", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 2, resp.Meta.Count)
	})
}

func TestRecordAndReportEndpoints(t *testing.T) {
	engine := newTestRouter()
	id := createInvoice(t, engine)
	doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/ledger/invoices/%s/status", id), map[string]any{"status": "SENT"})
	doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/ledger/invoices/%s/status", id), map[string]any{"status": "PAID"})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/ledger/expenses", map[string]any{
		"date":        "2024-03-14",
		"category":    "Office",
		"amount":      "75.50",
		"description": "Printer paper",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("unified record query", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/ledger/records?sort_by=amount&sort_desc=true", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 2, resp.Meta.Count)
	})

	t.Run("record query rejects bad sort field", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/ledger/records?sort_by=total", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("net position", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/reports/net-position", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "25", data["revenue"])
	})

	t.Run("dashboard", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/reports/dashboard", nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("csv export streams both sections", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/reports/export/csv", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, w.Body.String(), "Invoices")
		assert.Contains(t, w.Body.String(), "Expenses")
	})

	t.Run("series rejects unknown granularity", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/reports/series?granularity=week", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("flush and health", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/ledger/flush", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, engine, http.MethodGet, "/api/v1/system/health", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "ok", data["status"])
		assert.Equal(t, false, data["dirty"])
	})
}
