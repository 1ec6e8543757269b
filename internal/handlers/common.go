package handlers

import (
	"github.com/labstack/echo/v4"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(c echo.Context, code int, err error) error {
	return c.JSON(code, Response{
		Status:  "error",
		Message: err.Error(),
	})
}

// validationError отдаёт 400 с ошибками по полям в стиле
// {"errors": {"field": "message"}}.
func validationError(c echo.Context, errs map[string]string) error {
	return c.JSON(400, map[string]interface{}{"errors": errs})
}
