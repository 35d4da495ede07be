package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
)

func (s *Server) handleListThreads(c echo.Context) error {
	threads, err := s.service.ListThreads(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(200, threads)
}

func (s *Server) handleGetThread(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	thread, err := s.service.GetThread(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(200, thread)
}

func (s *Server) handleGetFullThread(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	full, err := s.service.GetFullThread(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(200, full)
}

func (s *Server) handleCreateThread(c echo.Context) error {
	var data domain.InsertThread
	if err := c.Bind(&data); err != nil {
		return apperr.ValidationError("invalid request body")
	}
	thread, err := s.service.CreateThread(c.Request().Context(), currentUser(c), data)
	if err != nil {
		return err
	}
	return c.JSON(201, thread)
}

func (s *Server) handleUpdateThread(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var data domain.UpdateThread
	if err := c.Bind(&data); err != nil {
		return apperr.ValidationError("invalid request body")
	}
	thread, err := s.service.UpdateThread(c.Request().Context(), currentUser(c), id, data)
	if err != nil {
		return err
	}
	return c.JSON(200, thread)
}

func (s *Server) handleDeleteThread(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.service.DeleteThread(c.Request().Context(), currentUser(c), id); err != nil {
		return err
	}
	return c.NoContent(204)
}

func (s *Server) handleApproveThread(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.service.ApproveThread(c.Request().Context(), currentUser(c), id); err != nil {
		return err
	}
	return c.NoContent(204)
}

func (s *Server) handleStickyThread(c echo.Context) error {
	return s.setSticky(c, true)
}

func (s *Server) handleUnstickyThread(c echo.Context) error {
	return s.setSticky(c, false)
}

func (s *Server) setSticky(c echo.Context, sticky bool) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.service.SetThreadSticky(c.Request().Context(), currentUser(c), id, sticky); err != nil {
		return err
	}
	return c.NoContent(204)
}
