package api

import "github.com/signboardapp/signboard-server/internal/query"

// ListInput carries the shared query parameters for paginated list endpoints.
// All fields are free-form strings; normalization and clamping happen in the
// query package.
type ListInput struct {
	Authorization string `header:"Authorization"`
	Filter        string `query:"filter" doc:"Free-text filter"`
	Fields        string `query:"fields" doc:"Comma-separated field names to match the filter against"`
	Sort          string `query:"sort" doc:"Field to sort by (default createdAt)"`
	Order         string `query:"order" doc:"1 ascending, -1 descending (default -1)"`
	Page          string `query:"page" doc:"1-based page number (default 1)"`
	Limit         string `query:"limit" doc:"Page size (default 10, max 100)"`
}

func (in *ListInput) queryParams() query.Params {
	return query.Params{
		Filter: in.Filter,
		Fields: in.Fields,
		Sort:   in.Sort,
		Order:  in.Order,
		Page:   in.Page,
		Limit:  in.Limit,
	}
}
