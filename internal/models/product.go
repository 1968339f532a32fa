package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Category 商品分类（三级树）
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ParentID  *int64    `gorm:"index" json:"parent_id,omitempty"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name"`
	Level     int       `gorm:"not null;default:1" json:"level"`
	Sort      int       `gorm:"not null;default:0" json:"sort"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 树形展示字段，不落库
	Count    int64       `gorm:"-" json:"count"`
	Children []*Category `gorm:"-" json:"children,omitempty"`
}

// TableName 表名
func (Category) TableName() string {
	return "categories"
}

// 分类层级
const (
	CategoryLevelMin = 1
	CategoryLevelMax = 3
)

// Product 商品模型
// CurrentStock 只由采购单的创建和删除修改
type Product struct {
	ID           int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	Code         string                      `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Name         string                      `gorm:"type:varchar(200);not null" json:"name"`
	Category     string                      `gorm:"type:varchar(100);index" json:"category"`
	CategoryID   *int64                      `gorm:"index" json:"category_id,omitempty"`
	Spec         string                      `gorm:"type:varchar(200)" json:"spec"`
	Remark       string                      `gorm:"type:text" json:"remark"`
	Channel      string                      `gorm:"type:varchar(100)" json:"channel"`
	MinOrderQty  int                         `gorm:"not null;default:0" json:"min_order_qty"`
	Unit         string                      `gorm:"type:varchar(20)" json:"unit"`
	Price        decimal.Decimal             `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Images       datatypes.JSONSlice[string] `json:"images"`
	CurrentStock int                         `gorm:"not null;default:0" json:"current_stock"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Product) TableName() string {
	return "products"
}

// ProductBrief 列表排序使用的商品投影
type ProductBrief struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	CurrentStock int             `json:"current_stock"`
	Price        decimal.Decimal `json:"price"`
}

// Supplier 供应商
type Supplier struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	ContactName string    `gorm:"type:varchar(50)" json:"contact_name"`
	Phone       string    `gorm:"type:varchar(30)" json:"phone"`
	Address     string    `gorm:"type:varchar(255)" json:"address"`
	Type        string    `gorm:"type:varchar(50);index" json:"type"`
	Remark      string    `gorm:"type:text" json:"remark"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Supplier) TableName() string {
	return "suppliers"
}
