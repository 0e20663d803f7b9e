package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/order-saga/internal/domains/products/domain"
	"github.com/Apurer/order-saga/internal/domains/products/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists products in PostgreSQL using GORM. Name uniqueness is
// enforced by the name_key unique index.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type productRecord struct {
	ID        string          `gorm:"primaryKey;column:id"`
	Name      string          `gorm:"column:name"`
	NameKey   string          `gorm:"column:name_key"`
	Price     decimal.Decimal `gorm:"column:price"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (productRecord) TableName() string { return "products" }

func (r *Repository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if product == nil {
		return errors.New("product is nil")
	}
	record := toRecord(product)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrDuplicateName
		}
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return toDomain(record), nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []productRecord
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Product, 0, len(records))
	for _, record := range records {
		out = append(out, toDomain(record))
	}
	return out, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres repository not initialized")
	}
	return nil
}

func toRecord(product *domain.Product) productRecord {
	return productRecord{
		ID:        product.ID,
		Name:      product.Name,
		NameKey:   domain.NameKey(product.Name),
		Price:     product.Price,
		CreatedAt: product.CreatedAt.UTC(),
	}
}

func toDomain(record productRecord) *domain.Product {
	return &domain.Product{
		ID:        record.ID,
		Name:      record.Name,
		Price:     record.Price,
		CreatedAt: record.CreatedAt.UTC(),
	}
}
