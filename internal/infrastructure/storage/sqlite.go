package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bookkeep/backend/internal/domain/ledger"
	"github.com/bookkeep/backend/internal/domain/shared"
	"github.com/bookkeep/backend/internal/domain/shared/valueobject"
	applogger "github.com/bookkeep/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Ensure SQLiteStorage implements ledger.Storage
var _ ledger.Storage = (*SQLiteStorage)(nil)

// invoiceRow is the relational shape of an invoice. Seq preserves
// creation order across save/load cycles. Monetary amounts and dates
// are stored as text so they round trip without precision loss.
type invoiceRow struct {
	Seq        int64  `gorm:"primaryKey;autoIncrement"`
	ID         string `gorm:"uniqueIndex;size:36"`
	ClientName string
	IssueDate  string
	DueDate    string
	Status     string
	Total      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (invoiceRow) TableName() string { return "invoices" }

// invoiceItemRow is one line item. Position preserves the order of
// items within their invoice.
type invoiceItemRow struct {
	Seq         int64  `gorm:"primaryKey;autoIncrement"`
	InvoiceID   string `gorm:"index;size:36"`
	Position    int
	ID          string `gorm:"size:36"`
	Description string
	Category    string
	Quantity    string
	UnitPrice   string
	Subtotal    string
}

func (invoiceItemRow) TableName() string { return "invoice_items" }

type expenseRow struct {
	Seq         int64  `gorm:"primaryKey;autoIncrement"`
	ID          string `gorm:"uniqueIndex;size:36"`
	Date        string
	Category    string
	Amount      string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (expenseRow) TableName() string { return "expenses" }

// SQLiteStorage persists ledger snapshots in a SQLite database.
// Each save replaces the full contents inside one transaction.
type SQLiteStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLiteStorage opens (or creates) the database at path and runs
// the schema migration.
func NewSQLiteStorage(path string, logger *zap.Logger) (*SQLiteStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: applogger.NewGormLogger(logger, gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&invoiceRow{}, &invoiceItemRow{}, &expenseRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return &SQLiteStorage{db: db, logger: logger}, nil
}

// Load reads the full snapshot from the database in creation order.
// An empty database yields an empty snapshot.
func (s *SQLiteStorage) Load(ctx context.Context) (ledger.Snapshot, error) {
	var snap ledger.Snapshot

	var invRows []invoiceRow
	if err := s.db.WithContext(ctx).Order("seq").Find(&invRows).Error; err != nil {
		return snap, fmt.Errorf("load invoices: %w", err)
	}
	var itemRows []invoiceItemRow
	if err := s.db.WithContext(ctx).Order("invoice_id, position").Find(&itemRows).Error; err != nil {
		return snap, fmt.Errorf("load invoice items: %w", err)
	}
	itemsByInvoice := make(map[string][]invoiceItemRow, len(invRows))
	for _, row := range itemRows {
		itemsByInvoice[row.InvoiceID] = append(itemsByInvoice[row.InvoiceID], row)
	}

	snap.Invoices = make([]ledger.Invoice, 0, len(invRows))
	for _, row := range invRows {
		inv, err := row.toDomain(itemsByInvoice[row.ID])
		if err != nil {
			return ledger.Snapshot{}, err
		}
		snap.Invoices = append(snap.Invoices, *inv)
	}

	var expRows []expenseRow
	if err := s.db.WithContext(ctx).Order("seq").Find(&expRows).Error; err != nil {
		return ledger.Snapshot{}, fmt.Errorf("load expenses: %w", err)
	}
	snap.Expenses = make([]ledger.Expense, 0, len(expRows))
	for _, row := range expRows {
		exp, err := row.toDomain()
		if err != nil {
			return ledger.Snapshot{}, err
		}
		snap.Expenses = append(snap.Expenses, *exp)
	}

	s.logger.Info("snapshot loaded from sqlite",
		zap.Int("invoices", len(snap.Invoices)),
		zap.Int("expenses", len(snap.Expenses)),
	)
	return snap, nil
}

// Save replaces the database contents with the snapshot.
func (s *SQLiteStorage) Save(ctx context.Context, snap ledger.Snapshot) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"invoice_items", "invoices", "expenses"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		for i := range snap.Invoices {
			inv := &snap.Invoices[i]
			if err := tx.Create(invoiceRowFromDomain(inv)).Error; err != nil {
				return fmt.Errorf("save invoice %s: %w", inv.ID, err)
			}
			for pos := range inv.Items {
				if err := tx.Create(itemRowFromDomain(inv.ID, pos, &inv.Items[pos])).Error; err != nil {
					return fmt.Errorf("save invoice item: %w", err)
				}
			}
		}
		for i := range snap.Expenses {
			exp := &snap.Expenses[i]
			if err := tx.Create(expenseRowFromDomain(exp)).Error; err != nil {
				return fmt.Errorf("save expense %s: %w", exp.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("snapshot saved to sqlite",
		zap.Int("invoices", len(snap.Invoices)),
		zap.Int("expenses", len(snap.Expenses)),
	)
	return nil
}

func invoiceRowFromDomain(inv *ledger.Invoice) *invoiceRow {
	return &invoiceRow{
		ID:         inv.ID.String(),
		ClientName: inv.ClientName,
		IssueDate:  inv.IssueDate.String(),
		DueDate:    inv.DueDate.String(),
		Status:     inv.Status.String(),
		Total:      inv.Total.String(),
		CreatedAt:  inv.CreatedAt,
		UpdatedAt:  inv.UpdatedAt,
	}
}

func itemRowFromDomain(invoiceID uuid.UUID, position int, item *ledger.LineItem) *invoiceItemRow {
	return &invoiceItemRow{
		InvoiceID:   invoiceID.String(),
		Position:    position,
		ID:          item.ID.String(),
		Description: item.Description,
		Category:    item.Category,
		Quantity:    item.Quantity.String(),
		UnitPrice:   item.UnitPrice.String(),
		Subtotal:    item.Subtotal.String(),
	}
}

func expenseRowFromDomain(exp *ledger.Expense) *expenseRow {
	return &expenseRow{
		ID:          exp.ID.String(),
		Date:        exp.Date.String(),
		Category:    exp.Category,
		Amount:      exp.Amount.String(),
		Description: exp.Description,
		CreatedAt:   exp.CreatedAt,
		UpdatedAt:   exp.UpdatedAt,
	}
}

func (r invoiceRow) toDomain(items []invoiceItemRow) (*ledger.Invoice, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: invalid id: %w", r.ID, err)
	}
	issue, err := valueobject.ParseDate(r.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: invalid issue date: %w", r.ID, err)
	}
	due, err := valueobject.ParseDate(r.DueDate)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: invalid due date: %w", r.ID, err)
	}
	total, err := decimal.NewFromString(r.Total)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: invalid total: %w", r.ID, err)
	}
	status := ledger.InvoiceStatus(r.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invoice %s: unknown status %q", r.ID, r.Status)
	}

	domainItems := make([]ledger.LineItem, 0, len(items))
	for _, row := range items {
		item, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("invoice %s: %w", r.ID, err)
		}
		domainItems = append(domainItems, *item)
	}

	return &ledger.Invoice{
		BaseEntity: shared.BaseEntity{ID: id, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		ClientName: r.ClientName,
		IssueDate:  issue,
		DueDate:    due,
		Items:      domainItems,
		Status:     status,
		Total:      total,
	}, nil
}

func (r invoiceItemRow) toDomain() (*ledger.LineItem, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("line item %s: invalid id: %w", r.ID, err)
	}
	qty, err := decimal.NewFromString(r.Quantity)
	if err != nil {
		return nil, fmt.Errorf("line item %s: invalid quantity: %w", r.ID, err)
	}
	price, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("line item %s: invalid unit price: %w", r.ID, err)
	}
	subtotal, err := decimal.NewFromString(r.Subtotal)
	if err != nil {
		return nil, fmt.Errorf("line item %s: invalid subtotal: %w", r.ID, err)
	}
	return &ledger.LineItem{
		ID:          id,
		Description: r.Description,
		Category:    r.Category,
		Quantity:    qty,
		UnitPrice:   price,
		Subtotal:    subtotal,
	}, nil
}

func (r expenseRow) toDomain() (*ledger.Expense, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("expense %s: invalid id: %w", r.ID, err)
	}
	date, err := valueobject.ParseDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("expense %s: invalid date: %w", r.ID, err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("expense %s: invalid amount: %w", r.ID, err)
	}
	return &ledger.Expense{
		BaseEntity:  shared.BaseEntity{ID: id, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		Date:        date,
		Category:    r.Category,
		Amount:      amount,
		Description: r.Description,
	}, nil
}
