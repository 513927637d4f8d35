package service

import (
	"context"

	"xchangez/internal/dto"
	"xchangez/internal/models"
	"xchangez/internal/repository"
	"xchangez/internal/validation"

	"gorm.io/gorm"
)

type ListService struct {
	lists *repository.ListStore
	items *repository.ListItemStore
	users *repository.UserStore
}

type ListInput struct {
	Name        string
	Description *string
	IsPublic    *bool
	Items       []ListItemInput
}

type ListItemInput struct {
	Name        string
	Description string
	Wanted      bool
}

func NewListService(db *gorm.DB) *ListService {
	return &ListService{
		lists: repository.NewListStore(db),
		items: repository.NewListItemStore(db),
		users: repository.NewUserStore(db),
	}
}

func (in ListInput) validate() error {
	if err := validation.ValidateText("name", in.Name, true, 50); err != nil {
		return models.NewValidationError(err.Error())
	}
	if in.Description != nil {
		if err := validation.ValidateText("description", *in.Description, false, 250); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	for _, it := range in.Items {
		if err := it.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (in ListItemInput) validate() error {
	if err := validation.ValidateText("item name", in.Name, true, 50); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateText("item description", in.Description, false, 250); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

func (in ListItemInput) entity(listID uint) *models.ListItem {
	return &models.ListItem{ListID: listID, Name: in.Name, Description: in.Description, Wanted: in.Wanted}
}

// Create stores a list with its items in one transaction.
func (s *ListService) Create(ctx context.Context, userID uint, in ListInput) (*dto.ListView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	list := &models.List{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		IsPublic:    in.IsPublic == nil || *in.IsPublic,
	}
	uow := s.lists.Begin().Create(list)
	uow.Exec("create list_items", func(tx *gorm.DB) *gorm.DB {
		if len(in.Items) == 0 {
			return tx
		}
		rows := make([]*models.ListItem, 0, len(in.Items))
		for _, it := range in.Items {
			rows = append(rows, it.entity(list.ID))
		}
		return tx.Create(&rows)
	})
	if _, err := uow.Commit(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.view(ctx, list.ID)
}

func (s *ListService) view(ctx context.Context, id uint) (*dto.ListView, error) {
	rows, err := s.lists.Query(ctx, repository.Filter{
		Where:   repository.Where("id = ?", id),
		Include: []string{"Items"},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundError("List", id)
	}
	return &rows[0], nil
}

// Get returns a list. Private lists are only visible to their owner.
func (s *ListService) Get(ctx context.Context, viewerID, id uint) (*dto.ListView, error) {
	view, err := s.view(ctx, id)
	if err != nil {
		return nil, err
	}
	if !view.IsPublic && view.UserID != viewerID {
		return nil, models.NewNotFoundError("List", id)
	}
	return view, nil
}

// ByUser returns ownerID's lists; private ones only when the viewer is the owner.
func (s *ListService) ByUser(ctx context.Context, viewerID, ownerID uint) ([]dto.ListView, error) {
	if _, err := s.users.Get(ctx, ownerID); err != nil {
		return nil, err
	}
	where := repository.Where("user_id = ?", ownerID)
	if viewerID != ownerID {
		where = repository.And(where, repository.Where("is_public = ?", true))
	}
	return s.lists.Query(ctx, repository.Filter{
		Where:   where,
		Include: []string{"Items"},
		OrderBy: "created_at DESC, id DESC",
	})
}

// Update overwrites the list fields and replaces its items in one transaction.
func (s *ListService) Update(ctx context.Context, userID, id uint, in ListInput) (*dto.ListView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	list, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	list.Name = in.Name
	list.Description = in.Description
	if in.IsPublic != nil {
		list.IsPublic = *in.IsPublic
	}

	uow := s.lists.Begin().
		UpdateColumns(list, "name", "description", "is_public").
		DeleteWhere(&models.ListItem{}, repository.Where("list_id = ?", id))
	for _, it := range in.Items {
		uow.Create(it.entity(id))
	}
	if _, err := uow.Commit(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.view(ctx, id)
}

// Delete removes the items and then the list, in one transaction.
func (s *ListService) Delete(ctx context.Context, userID, id uint) error {
	list, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	_, err = s.lists.Begin().
		DeleteWhere(&models.ListItem{}, repository.Where("list_id = ?", id)).
		Delete(list).
		Commit(ctx)
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *ListService) AddItem(ctx context.Context, userID, listID uint, in ListItemInput) (*dto.ListItemView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, userID, listID); err != nil {
		return nil, err
	}
	item := in.entity(listID)
	if _, err := s.items.Begin().Create(item).Commit(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	view, err := s.items.View(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *ListService) UpdateItem(ctx context.Context, userID, listID, itemID uint, in ListItemInput) (*dto.ListItemView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item, err := s.ownedItem(ctx, userID, listID, itemID)
	if err != nil {
		return nil, err
	}
	item.Name = in.Name
	item.Description = in.Description
	item.Wanted = in.Wanted
	if _, err := s.items.Begin().UpdateColumns(item, "name", "description", "wanted").Commit(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	view, err := s.items.View(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *ListService) DeleteItem(ctx context.Context, userID, listID, itemID uint) error {
	item, err := s.ownedItem(ctx, userID, listID, itemID)
	if err != nil {
		return err
	}
	if _, err := s.items.Begin().Delete(item).Commit(ctx); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *ListService) owned(ctx context.Context, userID, id uint) (*models.List, error) {
	list, err := s.lists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if list.UserID != userID {
		return nil, models.NewForbiddenError("You can only modify your own lists")
	}
	return list, nil
}

func (s *ListService) ownedItem(ctx context.Context, userID, listID, itemID uint) (*models.ListItem, error) {
	if _, err := s.owned(ctx, userID, listID); err != nil {
		return nil, err
	}
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.ListID != listID {
		return nil, models.NewNotFoundError("ListItem", itemID)
	}
	return item, nil
}
