package book

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"booksearch/internal/httpx"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestHTTPHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, 2)
	handler := NewHTTPHandler(service, nil, 100)

	moby := Book{ID: 7, CatalogID: 2701, Title: strPtr("Moby Dick; Or, The Whale"), MediaType: "Text", DownloadCount: intPtr(500)}

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any(), 25, 0).Return([]Book{moby}, nil)
		mockRepo.EXPECT().Authors(gomock.Any(), 7).Return([]Author{{Name: "Melville, Herman", BirthYear: intPtr(1819), DeathYear: intPtr(1891)}}, nil)
		mockRepo.EXPECT().Languages(gomock.Any(), 7).Return([]string{"en"}, nil)
		mockRepo.EXPECT().Subjects(gomock.Any(), 7).Return([]string{"Whaling -- Fiction"}, nil)
		mockRepo.EXPECT().Bookshelves(gomock.Any(), 7).Return(nil, nil)
		mockRepo.EXPECT().Formats(gomock.Any(), 7).Return([]Format{{MimeType: "text/plain", URL: "https://www.gutenberg.org/ebooks/2701.txt.utf-8"}}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books?book_ids=2701", nil)

		handler.List(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{
			"count": 1,
			"results": [{
				"id": 2701,
				"title": "Moby Dick; Or, The Whale",
				"authors": [{"name": "Melville, Herman", "birth_year": 1819, "death_year": 1891}],
				"languages": ["en"],
				"subjects": ["Whaling -- Fiction"],
				"bookshelves": [],
				"download_links": [{"mime_type": "text/plain", "url": "https://www.gutenberg.org/ebooks/2701.txt.utf-8"}]
			}]
		}`, w.Body.String())
	})

	t.Run("no match", func(t *testing.T) {
		mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books?language=fr&book_ids=2701", nil)

		handler.List(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"count":0,"results":[]}`, w.Body.String())
	})

	t.Run("page size passed through", func(t *testing.T) {
		mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(30, nil)
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any(), 10, 20).Return([]Book{}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books?page=3&page_size=10", nil)

		handler.List(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"count":30,"results":[]}`, w.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books", nil)

		handler.List(w, r)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body httpx.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.False(t, body.Success)
		assert.Equal(t, httpx.CodeInternal, body.Error.Code)
		assert.NotContains(t, body.Error.Message, "deadline")
	})
}

func TestHTTPHandler_List_InvalidPagination(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		field   string
		message string
	}{
		{name: "zero size", query: "page_size=0", field: "page_size", message: "page_size must be greater than 0"},
		{name: "negative size", query: "page_size=-5", field: "page_size", message: "page_size must be greater than 0"},
		{name: "size above max", query: "page_size=101", field: "page_size", message: "page_size must be at most 100"},
		{name: "non integer size", query: "page_size=ten", field: "page_size", message: "page_size must be an integer"},
		{name: "non integer page", query: "page=first", field: "page", message: "page must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockRepo := NewMockRepository(ctrl)
			handler := NewHTTPHandler(NewService(mockRepo, 1), nil, 100)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/books?"+tt.query, nil)

			handler.List(w, r)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var body httpx.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, httpx.CodeInvalidPagination, body.Error.Code)
			require.Len(t, body.Error.Details, 1)
			assert.Equal(t, tt.field, body.Error.Details[0].Field)
			assert.Equal(t, tt.message, body.Error.Details[0].Message)
		})
	}
}
