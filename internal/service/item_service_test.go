package service_test

import (
	"context"
	"testing"

	"moveops/internal/apierror"
	"moveops/internal/dto"
	"moveops/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItem_DefaultsUnit(t *testing.T) {
	repo := newStubItemRepo()
	svc := service.NewItemService(repo)

	resp, err := svc.Create(context.Background(), dto.CreateItemRequest{
		Name:      "Bubble wrap roll",
		Category:  "packing",
		BasePrice: decimal.NewFromInt(15),
	})
	require.NoError(t, err)
	assert.Equal(t, "unit", resp.Unit)
	assert.True(t, resp.Active)
}

func TestUpdateItem_RejectsNegativePrice(t *testing.T) {
	repo := newStubItemRepo()
	svc := service.NewItemService(repo)
	item := seedItem(repo, "Crew hour", 200)

	neg := decimal.NewFromInt(-1)
	_, err := svc.Update(context.Background(), item.ID, dto.UpdateItemRequest{BasePrice: &neg})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
	assert.True(t, item.BasePrice.Equal(decimal.NewFromInt(200)))
}

func TestDeactivateReactivateItem(t *testing.T) {
	repo := newStubItemRepo()
	svc := service.NewItemService(repo)
	item := seedItem(repo, "Tape", 3)

	require.NoError(t, svc.Deactivate(context.Background(), item.ID))
	assert.False(t, item.Active)

	require.NoError(t, svc.Reactivate(context.Background(), item.ID))
	assert.True(t, item.Active)
}

func TestGetItem_NotFound(t *testing.T) {
	repo := newStubItemRepo()
	svc := service.NewItemService(repo)

	_, err := svc.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}
