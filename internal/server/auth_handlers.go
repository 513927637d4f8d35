package server

import (
	"time"

	"xchangez/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Nick      string     `json:"nick"`
	Name      string     `json:"name"`
	Surname   string     `json:"surname"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	BirthDate *time.Time `json:"birth_date"`
}

// Register handles POST /api/auth/register
// @Summary User registration
// @Description Create an account. The email must not be in use.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration request"
// @Success 201 {object} dto.UserView
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Nick:      req.Nick,
		Name:      req.Name,
		Surname:   req.Surname,
		Email:     req.Email,
		Password:  req.Password,
		BirthDate: req.BirthDate,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Exchange email and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login request"
// @Success 200 {object} dto.Token
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	token, err := s.userService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(token)
}
