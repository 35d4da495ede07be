package httpserver

import (
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
)

func (s *Server) handleListSections(c echo.Context) error {
	sections, err := s.service.ListSections(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(200, sections)
}

func (s *Server) handleGetSection(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	section, err := s.service.GetSection(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(200, section)
}

func (s *Server) handleCreateSection(c echo.Context) error {
	var data domain.InsertSection
	if err := c.Bind(&data); err != nil {
		return apperr.ValidationError("invalid request body")
	}
	section, err := s.service.CreateSection(c.Request().Context(), currentUser(c), data)
	if err != nil {
		return err
	}
	return c.JSON(201, section)
}

// lockRequest is the PATCH body shape of a lock transition. The holder
// field must be present so a release (explicit null) is distinguishable
// from an ordinary field update that omits the key entirely.
type lockRequest struct {
	LockHeldByUserID *int32 `json:"lock_held_by_user_id"`
}

// handlePatchSection discriminates between a lock transition and a
// field update by the presence of lock_held_by_user_id in the body.
func (s *Server) handlePatchSection(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return apperr.ValidationError("invalid request body")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return apperr.ValidationError("invalid request body")
	}

	if _, ok := fields["lock_held_by_user_id"]; ok {
		var req lockRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return apperr.ValidationError("invalid lock request")
		}
		section, err := s.service.SetSectionLock(c.Request().Context(), currentUser(c), id, req.LockHeldByUserID)
		if err != nil {
			return err
		}
		return c.JSON(200, section)
	}

	var data domain.UpdateSection
	if err := json.Unmarshal(body, &data); err != nil {
		return apperr.ValidationError("invalid request body")
	}
	section, err := s.service.UpdateSection(c.Request().Context(), currentUser(c), id, data)
	if err != nil {
		return err
	}
	return c.JSON(200, section)
}

func (s *Server) handleDeleteSection(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.service.DeleteSection(c.Request().Context(), currentUser(c), id); err != nil {
		return err
	}
	return c.NoContent(204)
}
