package book

import (
	"context"
	"os"
	"testing"
	"time"

	"booksearch/internal/platform/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhere(t *testing.T) {
	t.Run("empty predicate", func(t *testing.T) {
		where, args := buildWhere(Predicate{}, 1)

		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("terms ORed within clause and ANDed across", func(t *testing.T) {
		p := Filter{BookIDs: []int{2701, 1342}, Languages: []string{"en"}}.Compile()

		where, args := buildWhere(p, 1)

		assert.Equal(t,
			"WHERE (b.gutenberg_id = $1 OR b.gutenberg_id = $2) AND "+
				"(b.id IN (SELECT bl.book_id FROM books_book_languages bl JOIN books_language l ON l.id = bl.language_id WHERE LOWER(l.code) = LOWER($3)))",
			where)
		assert.Equal(t, []any{2701, 1342, "en"}, args)
	})

	t.Run("topic searches subjects and bookshelves", func(t *testing.T) {
		where, args := buildWhere(Filter{Topics: []string{"children"}}.Compile(), 1)

		assert.Contains(t, where, "books_subject s ON s.id = bs.subject_id WHERE s.name ILIKE $1")
		assert.Contains(t, where, "books_bookshelf sh ON sh.id = bb.bookshelf_id WHERE sh.name ILIKE $2")
		assert.Contains(t, where, " OR ")
		assert.Equal(t, []any{"%children%", "%children%"}, args)
	})

	t.Run("placeholders continue from argn", func(t *testing.T) {
		where, args := buildWhere(Filter{Titles: []string{"whale"}, Authors: []string{"melville"}}.Compile(), 3)

		assert.Contains(t, where, "a.name ILIKE $3")
		assert.Contains(t, where, "b.title ILIKE $4")
		assert.Equal(t, []any{"%melville%", "%whale%"}, args)
	})

	t.Run("unknown source matches nothing", func(t *testing.T) {
		p := Predicate{Clauses: []Clause{{Field: "x", Terms: []Term{{Source: Source(99), Text: "x"}, {Source: SourceTitle, Text: "y"}}}}}

		where, args := buildWhere(p, 1)

		assert.Equal(t, "WHERE (FALSE OR b.title ILIKE $1)", where)
		assert.Equal(t, []any{"%y%"}, args)
	})
}

func TestContainsPattern(t *testing.T) {
	tests := map[string]string{
		"whale":      "%whale%",
		"100%":       `%100\%%`,
		"snake_case": `%snake\_case%`,
		`back\slash`: `%back\\slash%`,
	}
	for in, want := range tests {
		assert.Equal(t, want, containsPattern(in), in)
	}
}

// newTestPool connects to TEST_DB_DSN, applies migrations and loads a small
// catalog. Tests using it are skipped when the variable is unset.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	sqlDB := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(sqlDB, "../../db/migrations"))

	fixture := []string{
		`TRUNCATE books_book, books_author, books_language, books_subject, books_bookshelf CASCADE`,
		`INSERT INTO books_book (id, gutenberg_id, title, media_type, download_count) VALUES
			(1, 2701, 'Moby Dick; Or, The Whale', 'Text', 500),
			(2, 1342, 'Pride and Prejudice', 'Text', 4200),
			(3, 11, 'Alice''s Adventures in Wonderland', 'Text', 500),
			(4, 99999, NULL, 'Text', NULL)`,
		`INSERT INTO books_author (id, name, birth_year, death_year) VALUES
			(1, 'Melville, Herman', 1819, 1891), (2, 'Austen, Jane', 1775, 1817), (3, 'Carroll, Lewis', 1832, 1898)`,
		`INSERT INTO books_book_authors (id, book_id, author_id) VALUES (1, 1, 1), (2, 2, 2), (3, 3, 3)`,
		`INSERT INTO books_language (id, code) VALUES (1, 'en'), (2, 'fr')`,
		`INSERT INTO books_book_languages (id, book_id, language_id) VALUES (1, 1, 1), (2, 2, 1), (3, 3, 1)`,
		`INSERT INTO books_subject (id, name) VALUES (1, 'Whaling -- Fiction'), (2, 'Sea stories'), (3, 'Fantasy fiction')`,
		`INSERT INTO books_book_subjects (id, book_id, subject_id) VALUES (1, 1, 1), (2, 1, 2), (3, 3, 3)`,
		`INSERT INTO books_bookshelf (id, name) VALUES (1, 'Children''s Literature')`,
		`INSERT INTO books_book_bookshelves (id, book_id, bookshelf_id) VALUES (1, 3, 1)`,
		`INSERT INTO books_format (id, book_id, mime_type, url) VALUES
			(1, 1, 'text/plain', 'https://www.gutenberg.org/ebooks/2701.txt.utf-8'),
			(2, 1, 'application/epub+zip', 'https://www.gutenberg.org/ebooks/2701.epub3.images'),
			(3, 3, 'text/plain', 'https://www.gutenberg.org/ebooks/11.txt.utf-8')`,
	}
	for _, stmt := range fixture {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
	return pool
}

func TestPostgresRepo_Integration(t *testing.T) {
	pool := newTestPool(t)
	repo := NewPostgresRepo(pool, 5*time.Second)
	ctx := context.Background()

	t.Run("count and order", func(t *testing.T) {
		p := Predicate{}

		total, err := repo.Count(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		books, err := repo.List(ctx, p, 10, 0)
		require.NoError(t, err)
		ids := make([]int, 0, len(books))
		for _, b := range books {
			ids = append(ids, b.CatalogID)
		}
		assert.Equal(t, []int{1342, 11, 2701, 99999}, ids)
		assert.Nil(t, books[3].Title)
	})

	t.Run("book matching several tokens counted once", func(t *testing.T) {
		p := Filter{Topics: []string{"fiction", "sea", "whaling"}}.Compile()

		total, err := repo.Count(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("intersection", func(t *testing.T) {
		p := Filter{Languages: []string{"EN"}, MimeTypes: []string{"epub"}}.Compile()

		books, err := repo.List(ctx, p, 10, 0)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, 2701, books[0].CatalogID)
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		total, err := repo.Count(ctx, Filter{Titles: []string{"%"}}.Compile())
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})

	t.Run("relations", func(t *testing.T) {
		authors, err := repo.Authors(ctx, 1)
		require.NoError(t, err)
		require.Len(t, authors, 1)
		assert.Equal(t, "Melville, Herman", authors[0].Name)
		require.NotNil(t, authors[0].BirthYear)
		assert.Equal(t, 1819, *authors[0].BirthYear)

		subjects, err := repo.Subjects(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"Whaling -- Fiction", "Sea stories"}, subjects)

		shelves, err := repo.Bookshelves(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{}, shelves)

		formats, err := repo.Formats(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, formats, 2)

		langs, err := repo.Languages(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, []string{}, langs)
	})
}
