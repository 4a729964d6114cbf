package product

import "github.com/himalayan-naturals/storefront-backend/pkg/pagination"

// ListFilters describe the supported filter knobs for the catalog endpoint.
type ListFilters struct {
	Category string `json:"category,omitempty"`
	Query    string `json:"q,omitempty"`
	InStock  bool   `json:"inStock,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate and filter the catalog.
type ListProductsInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}
