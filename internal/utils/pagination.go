package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// GetPaginationParams reads "page" and the page size parameter named sizeParam.
// Missing values take defaults; malformed or out-of-range values are rejected
// rather than silently replaced.
func GetPaginationParams(c *gin.Context, sizeParam string) (PaginationParams, error) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		return PaginationParams{}, err
	}
	limit, err := intQuery(c, sizeParam, constants.DefaultPageSize)
	if err != nil {
		return PaginationParams{}, err
	}

	if page < 1 {
		return PaginationParams{}, apierrors.NewValidationError("page", "must be at least 1")
	}
	if limit < constants.MinPageSize {
		return PaginationParams{}, apierrors.NewValidationError(sizeParam, "must be positive")
	}
	if limit > constants.MaxPageSize {
		return PaginationParams{}, apierrors.NewValidationError(sizeParam, fmt.Sprintf("must not exceed %d", constants.MaxPageSize))
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}, nil
}

func intQuery(c *gin.Context, key string, defaultValue int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.NewValidationError(key, "must be an integer")
	}
	return v, nil
}
