package store

// PaginatedResult is one page of a list query plus totals for the whole
// result set. The JSON shape matches what dashboard clients already consume.
type PaginatedResult[T any] struct {
	Docs       []*T `json:"docs"`
	TotalDocs  int  `json:"totalDocs"`
	TotalPages int  `json:"totalPages"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
}

// NewPaginatedResult builds a result page. Docs is never nil so the JSON
// encodes as [] rather than null. TotalPages is at least 1 even for an empty
// result, which keeps "page X of Y" rendering sane.
func NewPaginatedResult[T any](docs []*T, total, page, limit int) *PaginatedResult[T] {
	if docs == nil {
		docs = []*T{}
	}

	totalPages := 1
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
		if totalPages < 1 {
			totalPages = 1
		}
	}

	return &PaginatedResult[T]{
		Docs:       docs,
		TotalDocs:  total,
		TotalPages: totalPages,
		Page:       page,
		Limit:      limit,
	}
}
