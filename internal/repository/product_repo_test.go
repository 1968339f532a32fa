// Package repository 商品仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/models"
	"github.com/dumeirei/inventory-backend/internal/testutil"
)

func TestProductRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &models.Product{
		Code:     "B03",
		Name:     "陈皮",
		Category: "滋补食品",
		Price:    testutil.Money("12.50"),
		Images:   []string{"https://cdn.example.com/a.png"},
	}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotZero(t, product.ID)

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "陈皮", found.Name)
	assert.Equal(t, []string{"https://cdn.example.com/a.png"}, []string(found.Images))
	assert.True(t, testutil.Money("12.5").Equal(found.Price))

	byCode, err := repo.GetByCode(ctx, "B03")
	require.NoError(t, err)
	assert.Equal(t, product.ID, byCode.ID)

	_, err = repo.GetByCode(ctx, "X99")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductRepository_DuplicateCode(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Product{Code: "A01", Name: "一"}))
	err := repo.Create(ctx, &models.Product{Code: "A01", Name: "二"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestProductRepository_UpdateKeepsStock(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p := testutil.CreateProduct(t, db, "A01", "旧名", 7)

	p.Name = "新名"
	p.CurrentStock = 999
	require.NoError(t, repo.Update(ctx, p))

	reloaded := testutil.ReloadProduct(t, db, p.ID)
	assert.Equal(t, "新名", reloaded.Name)
	assert.Equal(t, 7, reloaded.CurrentStock)
}

func TestProductRepository_AdjustStock(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p := testutil.CreateProduct(t, db, "A01", "商品", 2)

	require.NoError(t, repo.AdjustStock(ctx, p.ID, 5))
	assert.Equal(t, 7, testutil.ReloadProduct(t, db, p.ID).CurrentStock)

	require.NoError(t, repo.AdjustStock(ctx, p.ID, -10))
	assert.Equal(t, -3, testutil.ReloadProduct(t, db, p.ID).CurrentStock)

	err := repo.AdjustStock(ctx, 9999, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductRepository_GetByIDs(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	a := testutil.CreateProduct(t, db, "A01", "a", 0)
	b := testutil.CreateProduct(t, db, "A02", "b", 0)
	testutil.CreateProduct(t, db, "A03", "c", 0)

	products, err := repo.GetByIDs(ctx, []int64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	products, err = repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductRepository_ListBriefs(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Product{Code: "T01", Name: "茶", Category: "茶叶"}).Error)
	require.NoError(t, db.Create(&models.Product{Code: "S01", Name: "海参", Category: "滋补食品", CurrentStock: 3}).Error)

	all, err := repo.ListBriefs(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := repo.ListBriefs(ctx, "")
	require.NoError(t, err)
	assert.Len(t, none, 2)

	tonic, err := repo.ListBriefs(ctx, "滋补食品")
	require.NoError(t, err)
	require.Len(t, tonic, 1)
	assert.Equal(t, "S01", tonic[0].Code)
	assert.Equal(t, 3, tonic[0].CurrentStock)
}

func TestProductRepository_UpsertByCode(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	first := &models.Product{Code: "B03", Name: "陈皮", Spec: "500g", Images: []string{"u1"}}
	require.NoError(t, repo.UpsertByCode(ctx, first))

	require.NoError(t, repo.AdjustStock(ctx, first.ID, 4))

	second := &models.Product{Code: "B03", Name: "新会陈皮", Spec: "250g", Images: []string{"u2"}}
	require.NoError(t, repo.UpsertByCode(ctx, second))

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	found, err := repo.GetByCode(ctx, "B03")
	require.NoError(t, err)
	assert.Equal(t, "新会陈皮", found.Name)
	assert.Equal(t, "250g", found.Spec)
	assert.Equal(t, []string{"u2"}, []string(found.Images))
	assert.Equal(t, 4, found.CurrentStock)
}

func TestProductRepository_CategoryIDs(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	cat1, cat2 := int64(1), int64(2)
	require.NoError(t, db.Create(&models.Product{Code: "A01", Name: "a", CategoryID: &cat1}).Error)
	require.NoError(t, db.Create(&models.Product{Code: "A02", Name: "b", CategoryID: &cat1}).Error)
	require.NoError(t, db.Create(&models.Product{Code: "A03", Name: "c", CategoryID: &cat2}).Error)
	require.NoError(t, db.Create(&models.Product{Code: "A04", Name: "d"}).Error)

	counts, err := repo.CountByCategoryIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 2, 2: 1}, counts)

	require.NoError(t, repo.ClearCategoryIDs(ctx, []int64{1}))

	counts, err = repo.CountByCategoryIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{2: 1}, counts)
}

func TestProductRepository_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p := testutil.CreateProduct(t, db, "A01", "a", 0)
	require.NoError(t, repo.Delete(ctx, p.ID))

	_, err := repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
