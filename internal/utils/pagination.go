package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tenant-task-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page  int
	Limit int
}

// DefaultPagination returns page 1 with the default page size.
func DefaultPagination() PaginationParams {
	return PaginationParams{Page: constants.MinPage, Limit: constants.DefaultPageSize}
}

// Offset is the number of rows skipped before this page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Validate checks page >= 1 and limit within [1, MaxPageSize].
func (p PaginationParams) Validate() map[string]string {
	problems := map[string]string{}
	if p.Page < constants.MinPage {
		problems["page"] = fmt.Sprintf("must be at least %d", constants.MinPage)
	}
	if p.Limit < constants.MinPageSize || p.Limit > constants.MaxPageSize {
		problems["limit"] = fmt.Sprintf("must be between %d and %d", constants.MinPageSize, constants.MaxPageSize)
	}
	return problems
}

// TotalPages returns ceil(total/limit), or 0 when there is nothing to page.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) > 0 {
		pages++
	}
	return int(pages)
}

// GetPaginationParams extracts pagination parameters from the request query.
// Unlike clamping, malformed or out-of-bounds values are reported per field so
// the caller can answer 400.
func GetPaginationParams(c *gin.Context) (PaginationParams, map[string]string) {
	params := DefaultPagination()
	problems := map[string]string{}

	if raw, ok := c.GetQuery("page"); ok {
		page, err := strconv.Atoi(raw)
		if err != nil {
			problems["page"] = "must be an integer"
		} else {
			params.Page = page
		}
	}
	if raw, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			problems["limit"] = "must be an integer"
		} else {
			params.Limit = limit
		}
	}

	for field, msg := range params.Validate() {
		if _, exists := problems[field]; !exists {
			problems[field] = msg
		}
	}
	return params, problems
}
