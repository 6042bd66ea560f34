package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// pageParams are the resolved page-based pagination inputs. The client may
// override the page size via "limit" up to the configured ceiling.
type pageParams struct {
	page  int
	limit int
}

func (p pageParams) offset() int { return (p.page - 1) * p.limit }

func parsePageParams(c *gin.Context, defaultSize, maxSize int) pageParams {
	p := pageParams{page: 1, limit: defaultSize}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		p.limit = v
		if p.limit > maxSize {
			p.limit = maxSize
		}
	}
	return p
}

// pageResponse is the paginated listing envelope.
type pageResponse struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// newPageResponse builds the envelope with next/previous links derived from
// the request URL.
func newPageResponse(c *gin.Context, count int64, p pageParams, results any) pageResponse {
	resp := pageResponse{Count: count, Results: results}
	if int64(p.offset()+p.limit) < count {
		resp.Next = pageURL(c, p.page+1)
	}
	if p.page > 1 {
		resp.Previous = pageURL(c, p.page-1)
	}
	return resp
}

func pageURL(c *gin.Context, page int) *string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
