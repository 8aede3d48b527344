package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Pagination struct {
	Page   int
	Limit  int
	Cursor string
}

// ParseFromRequest reads page, limit and cursor query parameters. Malformed
// or out of range values fall back to the defaults; the limit is clamped.
func ParseFromRequest(c *fiber.Ctx) Pagination {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = 0
	}
	return Pagination{
		Page:   page,
		Limit:  ClampLimit(limit),
		Cursor: c.Query("cursor"),
	}
}

// ClampLimit ensures limit is within valid bounds.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Response creates a standardized cursor pagination response
func Response(data interface{}, page, limit int, nextCursor string) fiber.Map {
	meta := fiber.Map{
		"page":     page,
		"per_page": limit,
		"has_more": nextCursor != "",
	}
	if nextCursor != "" {
		meta["next_cursor"] = nextCursor
	}
	return fiber.Map{
		"data": data,
		"meta": meta,
	}
}
