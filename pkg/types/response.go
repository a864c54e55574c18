package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// PageResult wraps one page of an ascending listing. HasMore is a hint: it
// is true when the page came back full.
type PageResult[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}

// NewPageResult never returns a nil Items slice so empty pages encode as [].
func NewPageResult[T any](items []T, page, size int) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{
		Items:    items,
		Page:     page,
		PageSize: size,
		HasMore:  size > 0 && len(items) == size,
	}
}
