package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/order-saga/internal/domains/orders/domain"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM. Schema is owned by
// platform/migrations.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type orderRecord struct {
	ID        string            `gorm:"primaryKey;column:id"`
	Status    string            `gorm:"column:status"`
	CreatedAt time.Time         `gorm:"column:created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at"`
	Lines     []orderLineRecord `gorm:"foreignKey:OrderID;references:ID"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineRecord struct {
	OrderID     string          `gorm:"primaryKey;column:order_id"`
	Position    int             `gorm:"primaryKey;column:position"`
	ProductID   string          `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name"`
	Quantity    int32           `gorm:"column:quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

// Save upserts the order row and inserts its lines. Lines are immutable
// snapshots, so existing ones are left untouched; a status update is a
// single-row write that PostgreSQL serialises per order.
func (r *Repository) Save(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if order == nil {
		return errors.New("order is nil")
	}
	record := toRecord(order)
	lines := record.Lines
	record.Lines = nil
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":     record.Status,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Omit(clause.Associations).Create(&record).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&lines).Error
	})
}

// GetByID fetches an order and its lines.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain()
}

// List returns all orders, oldest first.
func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("created_at, id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		order, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		ID:        order.ID,
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.CreatedAt,
		Lines:     make([]orderLineRecord, 0, len(order.Lines)),
	}
	for i, line := range order.Lines {
		rec.Lines = append(rec.Lines, orderLineRecord{
			OrderID:     order.ID,
			Position:    i,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	return rec
}

func (r orderRecord) toDomain() (*domain.Order, error) {
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return nil, err
	}
	order := &domain.Order{
		ID:        r.ID,
		CreatedAt: r.CreatedAt.UTC(),
		Status:    status,
		Lines:     make([]domain.Line, 0, len(r.Lines)),
	}
	for _, line := range r.Lines {
		order.Lines = append(order.Lines, domain.Line{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	return order, nil
}
