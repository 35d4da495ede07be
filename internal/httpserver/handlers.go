package httpserver

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
)

func parseID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperr.ValidationError("id must be an integer")
	}
	return int32(id), nil
}
