package book

import (
	"errors"
	"net/http"

	"booksearch/internal/httpx"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	service     *Service
	log         *zap.Logger
	maxPageSize int
}

func NewHTTPHandler(service *Service, log *zap.Logger, maxPageSize int) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{service: service, log: log, maxPageSize: maxPageSize}
}

// ListResponse is the body of a successful search.
type ListResponse struct {
	Count   int      `json:"count"`
	Results []Record `json:"results"`
}

// List handles GET /books
// @Summary Search books
// @Description Filter the catalog; values within a parameter are ORed, parameters are ANDed
// @Tags books
// @Produce json
// @Param book_ids query string false "Comma-separated catalog ids"
// @Param language query string false "Comma-separated language codes"
// @Param mime_type query string false "Comma-separated MIME type fragments"
// @Param topic query string false "Comma-separated subject or bookshelf fragments"
// @Param author query string false "Comma-separated author name fragments"
// @Param title query string false "Comma-separated title fragments"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(25)
// @Success 200 {object} ListResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	pr, err := ParsePageRequest(query, h.maxPageSize)
	if err != nil {
		var perr *PaginationError
		if errors.As(err, &perr) {
			httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, httpx.CodeInvalidPagination, "Invalid pagination parameters", perr.Details)
			return
		}
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, httpx.CodeInvalidPagination, "Invalid pagination parameters", nil)
		return
	}

	res, err := h.service.Search(r.Context(), ParseFilter(query), pr)
	if err != nil {
		h.log.Error("search books",
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.Error(err),
		)
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, httpx.CodeInternal, "Internal server error", nil)
		return
	}

	httpx.JSON(w, http.StatusOK, ListResponse{
		Count:   res.Count,
		Results: res.Records,
	})
}
