package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
)

func (s *Server) handleListPresetEvents(c echo.Context) error {
	presets, err := s.service.ListPresetEvents(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(200, presets)
}

func (s *Server) handleGetPresetEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	preset, err := s.service.GetPresetEvent(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(200, preset)
}

func (s *Server) handleCreatePresetEvent(c echo.Context) error {
	var data domain.InsertPresetEvent
	if err := c.Bind(&data); err != nil {
		return apperr.ValidationError("invalid request body")
	}
	preset, err := s.service.CreatePresetEvent(c.Request().Context(), currentUser(c), data)
	if err != nil {
		return err
	}
	return c.JSON(201, preset)
}

func (s *Server) handleUpdatePresetEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var data domain.UpdatePresetEvent
	if err := c.Bind(&data); err != nil {
		return apperr.ValidationError("invalid request body")
	}
	preset, err := s.service.UpdatePresetEvent(c.Request().Context(), currentUser(c), id, data)
	if err != nil {
		return err
	}
	return c.JSON(200, preset)
}

func (s *Server) handleDeletePresetEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.service.DeletePresetEvent(c.Request().Context(), currentUser(c), id); err != nil {
		return err
	}
	return c.NoContent(204)
}
