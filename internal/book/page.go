package book

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"booksearch/internal/httpx"
)

const (
	ParamPage     = "page"
	ParamPageSize = "page_size"

	DefaultPageSize    = 25
	DefaultMaxPageSize = 1000
)

// ErrInvalidPagination is matched by every PaginationError.
var ErrInvalidPagination = errors.New("invalid pagination parameters")

// PaginationError lists the offending page parameters.
type PaginationError struct {
	Details []httpx.ErrorDetail
}

func (e *PaginationError) Error() string {
	msgs := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		msgs = append(msgs, d.Message)
	}
	return ErrInvalidPagination.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *PaginationError) Unwrap() error {
	return ErrInvalidPagination
}

// PageRequest is a validated 1-indexed page selection.
type PageRequest struct {
	Page    int `json:"page"`
	Size    int `json:"page_size" validate:"gt=0,ltefield=MaxSize"`
	MaxSize int `json:"-" validate:"-"`
}

// ParsePageRequest reads page and page_size. Absent or blank values take the
// defaults; non-integer values and sizes outside (0, maxSize] are rejected.
func ParsePageRequest(values url.Values, maxSize int) (PageRequest, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxPageSize
	}
	pr := PageRequest{Page: 1, Size: DefaultPageSize, MaxSize: maxSize}

	var details []httpx.ErrorDetail
	if raw := strings.TrimSpace(values.Get(ParamPage)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, httpx.ErrorDetail{Field: ParamPage, Message: "page must be an integer"})
		} else {
			pr.Page = n
		}
	}
	if raw := strings.TrimSpace(values.Get(ParamPageSize)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, httpx.ErrorDetail{Field: ParamPageSize, Message: "page_size must be an integer"})
		} else {
			pr.Size = n
		}
	}

	if len(details) == 0 {
		details = httpx.ValidateStruct(pr)
	}
	if len(details) > 0 {
		return PageRequest{}, &PaginationError{Details: details}
	}
	return pr, nil
}

// Window resolves the request against the number of matching books. A page
// outside [1, numPages] selects the last page, and an empty result still has
// one (empty) page.
func (pr PageRequest) Window(total int) (page, numPages, offset int) {
	numPages = 1
	if total > 0 {
		numPages = (total + pr.Size - 1) / pr.Size
	}
	page = pr.Page
	if page < 1 || page > numPages {
		page = numPages
	}
	return page, numPages, (page - 1) * pr.Size
}
