package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// MaxLimit caps an explicit page size. A zero Limit means "no paging".
const MaxLimit = 1000

const (
	HeaderTotalCount = "X-Total-Count"
	HeaderHasMore    = "X-Has-More"
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts limit/offset query parameters. Without a limit the
// whole result set is returned.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 || limit == 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

func (p Params) Paged() bool { return p.Limit > 0 }

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Paged() && p.Offset+p.Limit < total
}

// SetHeaders reports the total match count, and for paged requests whether
// another page follows, without changing the response body shape.
func SetHeaders(c echo.Context, p Params, total int) {
	h := c.Response().Header()
	h.Set(HeaderTotalCount, strconv.Itoa(total))
	if p.Paged() {
		h.Set(HeaderHasMore, strconv.FormatBool(p.HasNext(total)))
	}
}
