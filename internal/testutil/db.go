// Package testutil 提供测试辅助工具
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/inventory-backend/internal/models"
)

var dbSeq atomic.Int64

// NewTestDB 创建独立的 SQLite 内存数据库并迁移全部模型
// 单连接，事务内必须使用 tx，否则会互相等待
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// Money 解析金额字面量
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateProduct 写入测试商品
func CreateProduct(t *testing.T, db *gorm.DB, code, name string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Code:         code,
		Name:         name,
		Category:     "其他",
		Price:        decimal.Zero,
		CurrentStock: stock,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateSupplier 写入测试供应商
func CreateSupplier(t *testing.T, db *gorm.DB, name string) *models.Supplier {
	t.Helper()
	s := &models.Supplier{Name: name, Type: "1688"}
	require.NoError(t, db.Create(s).Error)
	return s
}

// ReloadProduct 重新读取商品
func ReloadProduct(t *testing.T, db *gorm.DB, id int64) *models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return &p
}
