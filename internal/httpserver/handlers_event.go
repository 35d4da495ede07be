package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
)

func (s *Server) handleListEvents(c echo.Context) error {
	events, err := s.service.ListEvents(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(200, events)
}

func (s *Server) handleGetEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	event, err := s.service.GetEvent(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(200, event)
}

func (s *Server) handleCreateEvent(c echo.Context) error {
	var data domain.InsertEvent
	if err := c.Bind(&data); err != nil {
		return apperr.ValidationError("invalid request body")
	}
	event, err := s.service.CreateEvent(c.Request().Context(), currentUser(c), data)
	if err != nil {
		return err
	}
	return c.JSON(201, event)
}

func (s *Server) handleUpdateEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var data domain.UpdateEvent
	if err := c.Bind(&data); err != nil {
		return apperr.ValidationError("invalid request body")
	}
	event, err := s.service.UpdateEvent(c.Request().Context(), currentUser(c), id, data)
	if err != nil {
		return err
	}
	return c.JSON(200, event)
}

func (s *Server) handleDeleteEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.service.DeleteEvent(c.Request().Context(), currentUser(c), id); err != nil {
		return err
	}
	return c.NoContent(204)
}
