package service

import (
	"context"
	"testing"

	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCategoryAdd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.property(t, false, "Water")
	alice := env.user(t, "alice", true, false)

	got, err := env.categories.Add(ctx, CategoryRequest{Credentials: alice, PropertyID: p.ID, CategoryName: " Power "})
	require.NoError(t, err)
	assert.Equal(t, model.Categories{"Water", "Power"}, got.Categories)

	_, err = env.categories.Add(ctx, CategoryRequest{Credentials: alice, PropertyID: p.ID, CategoryName: "WATER"})
	assert.ErrorIs(t, err, ErrCategoryExists)

	stored, err := env.propertyRepository.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Categories{"Water", "Power"}, stored.Categories)
}

func TestCategoryDelete_RemovesDetails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.property(t, false, "Water", "Power")
	alice := env.user(t, "alice", true, false)

	for _, category := range []string{"water", "Power"} {
		_, err := env.categories.AddDetail(ctx, DetailRequest{
			Credentials:  alice,
			PropertyID:   p.ID,
			CategoryName: category,
			DetailName:   "Utility Co",
			DetailURL:    "https://utility.example",
		})
		require.NoError(t, err)
	}

	got, err := env.categories.Delete(ctx, CategoryRequest{Credentials: alice, PropertyID: p.ID, CategoryName: "WATER"})
	require.NoError(t, err)
	assert.Equal(t, model.Categories{"Power"}, got.Categories)

	details, err := env.categories.Details(ctx, alice, p.ID, "")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Power", details[0].CategoryName)

	_, err = env.categories.Delete(ctx, CategoryRequest{Credentials: alice, PropertyID: p.ID, CategoryName: "Water"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestDetail_RequiresExistingCategory(t *testing.T) {
	env := newTestEnv(t)
	p := env.property(t, false, "Water")
	alice := env.user(t, "alice", true, false)

	_, err := env.categories.AddDetail(context.Background(), DetailRequest{
		Credentials:  alice,
		PropertyID:   p.ID,
		CategoryName: "Gas",
		DetailName:   "Gas Co",
		DetailURL:    "https://gas.example",
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestDetail_Validation(t *testing.T) {
	env := newTestEnv(t)
	p := env.property(t, false, "Water")
	alice := env.user(t, "alice", true, false)

	_, err := env.categories.AddDetail(context.Background(), DetailRequest{
		Credentials:  alice,
		PropertyID:   p.ID,
		CategoryName: "Water",
		DetailName:   "Water Co",
		DetailURL:    "not a url",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDetail_UpdateOverwritesAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.property(t, false, "Water", "Power")
	alice := env.user(t, "alice", true, false)

	created, err := env.categories.AddDetail(ctx, DetailRequest{
		Credentials:       alice,
		PropertyID:        p.ID,
		CategoryName:      "Water",
		DetailName:        "Water Co",
		DetailURL:         "https://water.example",
		DetailDescription: strPtr("monthly"),
		DetailUsername:    strPtr("acct-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Water", created.CategoryName)

	updated, err := env.categories.UpdateDetail(ctx, UpdateDetailRequest{
		DetailID: created.ID,
		DetailRequest: DetailRequest{
			Credentials:  alice,
			PropertyID:   p.ID,
			CategoryName: "power",
			DetailName:   "Power Co",
			DetailURL:    "https://power.example",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Power", updated.CategoryName)
	assert.False(t, updated.CreatedAt.Before(created.CreatedAt))

	details, err := env.categories.Details(ctx, alice, p.ID, "POWER")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Power Co", details[0].DetailName)
	assert.Nil(t, details[0].DetailDescription, "update is a full overwrite")
	assert.Nil(t, details[0].DetailUsername)

	require.NoError(t, env.categories.DeleteDetail(ctx, DeleteDetailRequest{Credentials: alice, PropertyID: p.ID, DetailID: created.ID}))
	err = env.categories.DeleteDetail(ctx, DeleteDetailRequest{Credentials: alice, PropertyID: p.ID, DetailID: created.ID})
	assert.ErrorIs(t, err, repository.ErrDetailNotFound)
}

func TestProperties(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", true, false)

	home, err := env.properties.Create(ctx, CreatePropertyRequest{
		Credentials: alice,
		Title:       "Main St",
		ImageURL:    "https://img.example/main.jpg",
		Categories:  []string{"Water", " Power "},
	})
	require.NoError(t, err)
	assert.Equal(t, model.Categories{"Water", "Power"}, home.Categories)

	_, err = env.properties.Create(ctx, CreatePropertyRequest{Credentials: alice, Title: "Abroad", IsForeign: true})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.properties.Create(ctx, CreatePropertyRequest{Credentials: alice, Title: "Dup", Categories: []string{"Gas", "GAS"}})
	assert.ErrorIs(t, err, ErrValidation)

	env.property(t, true)

	list, err := env.properties.Properties(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, home.ID, list[0].ID)

	got, err := env.properties.Property(ctx, alice, home.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main St", got.Title)
}
