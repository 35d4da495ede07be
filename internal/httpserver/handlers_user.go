package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
)

func (s *Server) handleListUsers(c echo.Context) error {
	users, err := s.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(200, users)
}

func (s *Server) handleGetUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := s.service.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(200, user)
}

func (s *Server) handleUpdateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var data domain.UpdateUser
	if err := c.Bind(&data); err != nil {
		return apperr.ValidationError("invalid request body")
	}
	// The stored refresh token only changes through the OAuth flow.
	data.RefreshToken = nil

	user, err := s.service.UpdateUser(c.Request().Context(), currentUser(c), id, data)
	if err != nil {
		return err
	}
	return c.JSON(200, user)
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.service.DeleteUser(c.Request().Context(), currentUser(c), id); err != nil {
		return err
	}
	return c.NoContent(204)
}
