package shared

import (
	"net/http"
	"strconv"

	"perfhub/internal/transport/http/api"
)

type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) Limit() uint64 {
	return uint64(p.PageSize)
}

func (p Pagination) Offset() uint64 {
	return uint64((p.Page - 1) * p.PageSize)
}

func (p Pagination) Meta(total int) api.Pagination {
	return api.Pagination{Page: p.Page, PageSize: p.PageSize, Total: total}
}

// ParsePagination reads page and pageSize (page_size is accepted too).
// Pages are 1-based.
func ParsePagination(r *http.Request, defaultSize, maxSize int) Pagination {
	query := r.URL.Query()
	page := 1
	size := defaultSize
	if raw := query.Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	rawSize := query.Get("pageSize")
	if rawSize == "" {
		rawSize = query.Get("page_size")
	}
	if rawSize != "" {
		if v, err := strconv.Atoi(rawSize); err == nil && v > 0 {
			size = v
		}
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return Pagination{Page: page, PageSize: size}
}
