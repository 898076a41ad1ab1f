package service

import (
	"context"

	"moveops/internal/apierror"
	"moveops/internal/dto"
	"moveops/internal/model"
	"moveops/internal/repository"

	"github.com/google/uuid"
)

// ItemService defines the business logic contract for the service catalog.
type ItemService interface {
	Create(ctx context.Context, req dto.CreateItemRequest) (*dto.ItemResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error)
	List(ctx context.Context, filter dto.ItemFilter) (*dto.ItemListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
}

type itemService struct {
	repo repository.ItemRepository
}

func NewItemService(repo repository.ItemRepository) ItemService {
	return &itemService{repo: repo}
}

func (s *itemService) Create(ctx context.Context, req dto.CreateItemRequest) (*dto.ItemResponse, error) {
	unit := req.Unit
	if unit == "" {
		unit = "unit"
	}
	item := &model.Item{
		Name:        req.Name,
		Category:    req.Category,
		Unit:        unit,
		BasePrice:   req.BasePrice,
		Description: req.Description,
		Active:      true,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	resp := toItemResponse(item)
	return &resp, nil
}

func (s *itemService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("item not found")
	}
	resp := toItemResponse(item)
	return &resp, nil
}

func (s *itemService) List(ctx context.Context, filter dto.ItemFilter) (*dto.ItemListResponse, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ItemResponse, len(items))
	for i := range items {
		data[i] = toItemResponse(&items[i])
	}
	return &dto.ItemListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *itemService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("item not found")
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.BasePrice != nil {
		if req.BasePrice.IsNegative() {
			return nil, apierror.Validationf("base_price must not be negative")
		}
		// Price changes only affect future quotes and bookings; existing
		// documents keep their snapshots.
		item.BasePrice = *req.BasePrice
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	resp := toItemResponse(item)
	return &resp, nil
}

func (s *itemService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFoundf("item not found")
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *itemService) Reactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFoundf("item not found")
	}
	return s.repo.Reactivate(ctx, id)
}

func toItemResponse(i *model.Item) dto.ItemResponse {
	return dto.ItemResponse{
		ID:          i.ID.String(),
		Name:        i.Name,
		Category:    i.Category,
		Unit:        i.Unit,
		BasePrice:   i.BasePrice,
		Description: i.Description,
		Active:      i.Active,
	}
}
