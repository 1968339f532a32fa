package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/models"
	"github.com/dumeirei/inventory-backend/internal/repository"
	"github.com/dumeirei/inventory-backend/internal/testutil"
)

func newCategoryService(db *gorm.DB) *CategoryService {
	return NewCategoryService(db, repository.NewCategoryRepository(db), repository.NewProductRepository(db))
}

func mustCreateCategory(t *testing.T, svc *CategoryService, name string, parentID *int64) *models.Category {
	t.Helper()
	c, err := svc.Create(context.Background(), &CategoryRequest{Name: name, ParentID: parentID})
	require.NoError(t, err)
	return c
}

func TestCategoryService_CreateLevels(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newCategoryService(db)
	ctx := context.Background()

	l1 := mustCreateCategory(t, svc, "食品", nil)
	l2 := mustCreateCategory(t, svc, "滋补", &l1.ID)
	l3 := mustCreateCategory(t, svc, "海味", &l2.ID)
	assert.Equal(t, 1, l1.Level)
	assert.Equal(t, 2, l2.Level)
	assert.Equal(t, 3, l3.Level)

	_, err := svc.Create(ctx, &CategoryRequest{Name: "过深", ParentID: &l3.ID})
	assert.ErrorIs(t, err, errors.ErrCategoryLevelInvalid)

	_, err = svc.Create(ctx, &CategoryRequest{Name: "错层", ParentID: &l1.ID, Level: 3})
	assert.ErrorIs(t, err, errors.ErrCategoryParentInvalid)

	_, err = svc.Create(ctx, &CategoryRequest{Name: "根", Level: 2})
	assert.ErrorIs(t, err, errors.ErrCategoryParentInvalid)

	_, err = svc.Create(ctx, &CategoryRequest{Name: " "})
	assert.ErrorIs(t, err, errors.ErrCategoryNameRequired)

	missing := int64(999)
	_, err = svc.Create(ctx, &CategoryRequest{Name: "孤儿", ParentID: &missing})
	assert.ErrorIs(t, err, errors.ErrCategoryNotFound)
}

func TestCategoryService_UpdateCycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newCategoryService(db)
	ctx := context.Background()

	root := mustCreateCategory(t, svc, "根", nil)
	child := mustCreateCategory(t, svc, "子", &root.ID)

	_, err := svc.Update(ctx, root.ID, &CategoryRequest{Name: "根", ParentID: &child.ID})
	assert.ErrorIs(t, err, errors.ErrCategoryCycle)

	_, err = svc.Update(ctx, root.ID, &CategoryRequest{Name: "根", ParentID: &root.ID})
	assert.ErrorIs(t, err, errors.ErrCategoryCycle)

	_, err = svc.Update(ctx, 999, &CategoryRequest{Name: "x"})
	assert.ErrorIs(t, err, errors.ErrCategoryNotFound)
}

func TestCategoryService_UpdateReparentShiftsLevels(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newCategoryService(db)
	ctx := context.Background()

	a := mustCreateCategory(t, svc, "A", nil)
	b := mustCreateCategory(t, svc, "B", nil)
	b1 := mustCreateCategory(t, svc, "B1", &b.ID)
	b11 := mustCreateCategory(t, svc, "B11", &b1.ID)

	// B(1)->B1(2)->B11(3) 挂到 A 下将使 B11 变为 4 级
	_, err := svc.Update(ctx, b.ID, &CategoryRequest{Name: "B", ParentID: &a.ID})
	assert.ErrorIs(t, err, errors.ErrCategoryTooDeep)

	// B1 提升为根，B11 随之变为 2 级
	updated, err := svc.Update(ctx, b1.ID, &CategoryRequest{Name: "B1", Sort: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Level)
	assert.Nil(t, updated.ParentID)

	var reloaded models.Category
	require.NoError(t, db.First(&reloaded, b11.ID).Error)
	assert.Equal(t, 2, reloaded.Level)
}

func TestCategoryService_DeleteCascade(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newCategoryService(db)
	ctx := context.Background()

	root := mustCreateCategory(t, svc, "食品", nil)
	child := mustCreateCategory(t, svc, "茶叶", &root.ID)
	other := mustCreateCategory(t, svc, "日用", nil)

	p1 := &models.Product{Code: "T01", Name: "红茶", Category: "茶叶", CategoryID: &child.ID}
	p2 := &models.Product{Code: "D01", Name: "毛巾", Category: "日用品", CategoryID: &other.ID}
	require.NoError(t, db.Create(p1).Error)
	require.NoError(t, db.Create(p2).Error)

	require.NoError(t, svc.Delete(ctx, root.ID))

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	reloaded := testutil.ReloadProduct(t, db, p1.ID)
	assert.Nil(t, reloaded.CategoryID)
	assert.Equal(t, "茶叶", reloaded.Category)

	reloaded = testutil.ReloadProduct(t, db, p2.ID)
	require.NotNil(t, reloaded.CategoryID)

	assert.ErrorIs(t, svc.Delete(ctx, root.ID), errors.ErrCategoryNotFound)
}

func TestCategoryService_Tree(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newCategoryService(db)
	ctx := context.Background()

	root := mustCreateCategory(t, svc, "食品", nil)
	child := mustCreateCategory(t, svc, "茶叶", &root.ID)
	mustCreateCategory(t, svc, "日用", nil)

	require.NoError(t, db.Create(&models.Product{Code: "T01", Name: "红茶", CategoryID: &child.ID}).Error)
	require.NoError(t, db.Create(&models.Product{Code: "T02", Name: "绿茶", CategoryID: &child.ID}).Error)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "食品", tree[0].Name)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, int64(2), tree[0].Children[0].Count)
	assert.Zero(t, tree[0].Count)
	assert.Empty(t, tree[1].Children)
}
