package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Purchase 采购单
type Purchase struct {
	ID           int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo      string                      `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_no"`
	SupplierID   int64                       `gorm:"index;not null" json:"supplier_id"`
	PurchaseDate time.Time                   `gorm:"index;not null" json:"purchase_date"`
	TotalAmount  decimal.Decimal             `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	ShippingFee  decimal.Decimal             `gorm:"type:decimal(10,2);not null;default:0" json:"shipping_fee"`
	Remark       string                      `gorm:"type:text" json:"remark"`
	Photos       datatypes.JSONSlice[string] `json:"photos"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Supplier *Supplier     `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Items    []PurchaseItem `gorm:"foreignKey:PurchaseID" json:"items,omitempty"`
}

// TableName 表名
func (Purchase) TableName() string {
	return "purchases"
}

// PurchaseItem 采购明细
type PurchaseItem struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PurchaseID int64           `gorm:"index;not null" json:"purchase_id"`
	ProductID  int64           `gorm:"index;not null" json:"product_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`

	// 关联
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName 表名
func (PurchaseItem) TableName() string {
	return "purchase_items"
}

// All 返回需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Product{},
		&Supplier{},
		&Purchase{},
		&PurchaseItem{},
	}
}
