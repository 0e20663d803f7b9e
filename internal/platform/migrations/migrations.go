// Package migrations owns the relational schema for each service database.
package migrations

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Schema names a service-owned set of tables.
type Schema string

const (
	// Orders holds orders and their lines.
	Orders Schema = "orders"
	// Products holds the product catalog.
	Products Schema = "products"
)

// Run applies the requested schemas. A nil db is a no-op so in-memory
// deployments can call it unconditionally.
func Run(db *gorm.DB, schemas ...Schema) error {
	if db == nil {
		return nil
	}
	for _, schema := range schemas {
		var models []any
		switch schema {
		case Orders:
			models = []any{&orderRecord{}, &orderLineRecord{}}
		case Products:
			models = []any{&productRecord{}}
		default:
			return fmt.Errorf("unknown schema %q", schema)
		}
		if err := db.AutoMigrate(models...); err != nil {
			return fmt.Errorf("migrate %s: %w", schema, err)
		}
	}
	return nil
}

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID        string            `gorm:"primaryKey;column:id;type:varchar(64)"`
	Status    string            `gorm:"column:status;type:varchar(32);index"`
	CreatedAt time.Time         `gorm:"column:created_at;index"`
	UpdatedAt time.Time         `gorm:"column:updated_at"`
	Lines     []orderLineRecord `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineRecord struct {
	OrderID     string          `gorm:"primaryKey;column:order_id;type:varchar(64)"`
	Position    int             `gorm:"primaryKey;column:position"`
	ProductID   string          `gorm:"column:product_id;type:varchar(64);index"`
	ProductName string          `gorm:"column:product_name;type:varchar(200)"`
	Quantity    int32           `gorm:"column:quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(18,2)"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

// Product schema mirrors the products Postgres adapter.
type productRecord struct {
	ID        string          `gorm:"primaryKey;column:id;type:varchar(64)"`
	Name      string          `gorm:"column:name;type:varchar(200)"`
	NameKey   string          `gorm:"column:name_key;type:varchar(200);uniqueIndex"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(18,2)"`
	CreatedAt time.Time       `gorm:"column:created_at;index"`
}

func (productRecord) TableName() string { return "products" }
