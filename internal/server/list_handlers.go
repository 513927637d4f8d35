package server

import (
	"xchangez/internal/service"

	"github.com/gofiber/fiber/v2"
)

type listItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Wanted      bool   `json:"wanted"`
}

func (r listItemRequest) input() service.ListItemInput {
	return service.ListItemInput{Name: r.Name, Description: r.Description, Wanted: r.Wanted}
}

type listRequest struct {
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	IsPublic    *bool             `json:"is_public"`
	Items       []listItemRequest `json:"items"`
}

func (r listRequest) input() service.ListInput {
	in := service.ListInput{
		Name:        r.Name,
		Description: r.Description,
		IsPublic:    r.IsPublic,
		Items:       make([]service.ListItemInput, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, it.input())
	}
	return in
}

// CreateList handles POST /api/lists
func (s *Server) CreateList(c *fiber.Ctx) error {
	var req listRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	list, err := s.listService.Create(c.UserContext(), callerID(c), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(list)
}

// GetList handles GET /api/lists/:id
func (s *Server) GetList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	list, err := s.listService.Get(c.UserContext(), callerID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetUserLists handles GET /api/users/:id/lists
func (s *Server) GetUserLists(c *fiber.Ctx) error {
	ownerID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	lists, err := s.listService.ByUser(c.UserContext(), callerID(c), ownerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lists)
}

// UpdateList handles PUT /api/lists/:id. The item set is replaced.
func (s *Server) UpdateList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req listRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	list, err := s.listService.Update(c.UserContext(), callerID(c), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// DeleteList handles DELETE /api/lists/:id
func (s *Server) DeleteList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listService.Delete(c.UserContext(), callerID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddListItem handles POST /api/lists/:id/items
func (s *Server) AddListItem(c *fiber.Ctx) error {
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req listItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	item, err := s.listService.AddItem(c.UserContext(), callerID(c), listID, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateListItem handles PUT /api/lists/:id/items/:itemId
func (s *Server) UpdateListItem(c *fiber.Ctx) error {
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	itemID, err := s.parseID(c, "itemId")
	if err != nil {
		return nil
	}
	var req listItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	item, err := s.listService.UpdateItem(c.UserContext(), callerID(c), listID, itemID, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// DeleteListItem handles DELETE /api/lists/:id/items/:itemId
func (s *Server) DeleteListItem(c *fiber.Ctx) error {
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	itemID, err := s.parseID(c, "itemId")
	if err != nil {
		return nil
	}

	if err := s.listService.DeleteItem(c.UserContext(), callerID(c), listID, itemID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
