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

func TestCategoryRepository_CRUD(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	root := &models.Category{Name: "食品", Level: 1}
	require.NoError(t, repo.Create(ctx, root))
	child := &models.Category{Name: "滋补食品", Level: 2, ParentID: &root.ID, Sort: 2}
	require.NoError(t, repo.Create(ctx, child))

	found, err := repo.GetByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, found.ParentID)
	assert.Equal(t, root.ID, *found.ParentID)

	byName, err := repo.GetByName(ctx, "滋补食品")
	require.NoError(t, err)
	assert.Equal(t, child.ID, byName.ID)

	child.Name = "滋补"
	child.Sort = 1
	require.NoError(t, repo.Update(ctx, child))
	found, err = repo.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "滋补", found.Name)
	assert.Equal(t, 1, found.Sort)

	require.NoError(t, repo.UpdateLevel(ctx, child.ID, 3))
	found, err = repo.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Level)

	require.NoError(t, repo.DeleteByIDs(ctx, []int64{root.ID, child.ID}))
	_, err = repo.GetByID(ctx, root.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, repo.DeleteByIDs(ctx, nil))
}

func TestCategoryRepository_ListOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	b := &models.Category{Name: "B", Level: 1, Sort: 2}
	a := &models.Category{Name: "A", Level: 1, Sort: 1}
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, &models.Category{Name: "A1", Level: 2, ParentID: &a.ID}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "A", list[0].Name)
	assert.Equal(t, "B", list[1].Name)
	assert.Equal(t, "A1", list[2].Name)
}
