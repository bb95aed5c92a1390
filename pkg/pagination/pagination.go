package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse extracts and clamps page/limit from query parameters. Out-of-range
// values fall back to the defaults instead of erroring: list endpoints should
// never 400 over paging.
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// ListPayload wraps one page of items under the given key together with the
// paging echo list consumers use to render pagers.
func (p Params) ListPayload(key string, items interface{}, total int64) gin.H {
	return gin.H{
		key:     items,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}
}
