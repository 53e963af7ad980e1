package pagination

// DefaultLimit and MaxLimit bound the page size accepted from clients.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params are the client-supplied page coordinates.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps the params into valid ranges. Page values below 1
// become 1; missing or non-positive limits fall back to the default,
// and limits above MaxLimit are clamped to it.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset converts the params into a SQL offset.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination envelope block returned with every list
// response.
type Meta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// NewMeta derives page metadata for a total record count.
func NewMeta(p Params, total int) Meta {
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Meta{
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
		Pages:   pages,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1 && total > 0,
	}
}
