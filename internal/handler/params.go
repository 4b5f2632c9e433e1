package handler

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sumire/storefront/internal/domain"
)

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, *domain.AppError) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidation("id must be a positive integer",
			domain.ValidationError{Field: "id", Message: "id must be a positive integer"})
	}
	return id, nil
}

// bindBody decodes the JSON body into dst.
func bindBody(c echo.Context, dst any) *domain.AppError {
	if err := c.Bind(dst); err != nil {
		return domain.NewValidation("Request body is not valid JSON")
	}
	return nil
}

func resourcePath(collection string, id int64) string {
	return fmt.Sprintf("/api/v1/%s/%d", collection, id)
}
