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

func TestSupplierRepository_CRUD(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSupplierRepository(db)
	ctx := context.Background()

	s := &models.Supplier{Name: "义乌小商品", ContactName: "王五", Phone: "13800000000", Type: "1688"}
	require.NoError(t, repo.Create(ctx, s))

	found, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "王五", found.ContactName)

	s.Phone = "13900000000"
	require.NoError(t, repo.Update(ctx, s))
	found, err = repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "13900000000", found.Phone)

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSupplierRepository_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSupplierRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Supplier{Name: "杭州茶行", Type: "线下"}))
	require.NoError(t, repo.Create(ctx, &models.Supplier{Name: "广州干货", Type: "1688"}))
	require.NoError(t, repo.Create(ctx, &models.Supplier{Name: "广州海味", Type: "1688"}))

	list, total, err := repo.List(ctx, SupplierListParams{Offset: 0, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 3)
	assert.Equal(t, "广州海味", list[0].Name)

	list, total, err = repo.List(ctx, SupplierListParams{Offset: 0, Limit: 10, Keyword: "广州"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	list, total, err = repo.List(ctx, SupplierListParams{Offset: 0, Limit: 1, Type: "1688"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 1)
}
