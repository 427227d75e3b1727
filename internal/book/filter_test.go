package book

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Filter
	}{
		{
			name:  "empty",
			query: "",
			want:  Filter{},
		},
		{
			name:  "comma separated ids",
			query: "book_ids=2701,1342",
			want:  Filter{BookIDs: []int{2701, 1342}},
		},
		{
			name:  "malformed ids dropped",
			query: "book_ids=abc,,42,4.5",
			want:  Filter{BookIDs: []int{42}},
		},
		{
			name:  "only malformed ids is unconstrained",
			query: "book_ids=abc",
			want:  Filter{},
		},
		{
			name:  "tokens trimmed and blanks dropped",
			query: "language=%20en%20,,fr&title=%20&author=melville,",
			want:  Filter{Languages: []string{"en", "fr"}, Authors: []string{"melville"}},
		},
		{
			name:  "repeated parameters merged",
			query: "topic=children&topic=sea,children&book_ids=1&book_ids=1,2",
			want:  Filter{Topics: []string{"children", "sea"}, BookIDs: []int{1, 2}},
		},
		{
			name:  "mime type quotes stripped",
			query: `mime_type="text/plain",'application/epub'`,
			want:  Filter{MimeTypes: []string{"text/plain", "application/epub"}},
		},
		{
			name:  "unknown parameters ignored",
			query: "sort=title&page=2",
			want:  Filter{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			got := ParseFilter(values)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.IsEmpty(), got.IsEmpty())
		})
	}
}

func TestFilter_Compile(t *testing.T) {
	t.Run("empty filter matches everything", func(t *testing.T) {
		assert.True(t, Filter{}.Compile().IsEmpty())
	})

	t.Run("one clause per field in fixed order", func(t *testing.T) {
		f := Filter{
			Titles:    []string{"whale"},
			BookIDs:   []int{2701},
			Languages: []string{"en"},
		}

		p := f.Compile()

		assert.Equal(t, Predicate{Clauses: []Clause{
			{Field: ParamBookIDs, Terms: []Term{{Source: SourceCatalogID, Number: 2701}}},
			{Field: ParamLanguage, Terms: []Term{{Source: SourceLanguage, Text: "en"}}},
			{Field: ParamTitle, Terms: []Term{{Source: SourceTitle, Text: "whale"}}},
		}}, p)
	})

	t.Run("topic expands to subject and bookshelf", func(t *testing.T) {
		p := Filter{Topics: []string{"children", "sea"}}.Compile()

		assert.Equal(t, []Clause{{Field: ParamTopic, Terms: []Term{
			{Source: SourceSubject, Text: "children"},
			{Source: SourceBookshelf, Text: "children"},
			{Source: SourceSubject, Text: "sea"},
			{Source: SourceBookshelf, Text: "sea"},
		}}}, p.Clauses)
	})

	t.Run("mime type and author sources", func(t *testing.T) {
		p := Filter{MimeTypes: []string{"epub"}, Authors: []string{"austen"}}.Compile()

		assert.Len(t, p.Clauses, 2)
		assert.Equal(t, SourceFormat, p.Clauses[0].Terms[0].Source)
		assert.Equal(t, SourceAuthor, p.Clauses[1].Terms[0].Source)
	})
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "catalog_id", SourceCatalogID.String())
	assert.Equal(t, "bookshelf", SourceBookshelf.String())
	assert.Equal(t, "unknown", Source(0).String())
}
