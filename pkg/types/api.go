package types

// CollectionPage is one window of a collection property as returned by
// GET /things/{id}?property=...&offset=...&limit=...
type CollectionPage struct {
	// Members in collection order, starting at Offset.
	Members []Item `json:"members"`
	// Offset of the first member.
	// example: 20
	Offset int `json:"offset" example:"20"`
	// Size of the whole collection.
	// example: 137
	TotalCount int `json:"totalCount" example:"137"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid offset
	Error string `json:"error" example:"invalid offset"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
