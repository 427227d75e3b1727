package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"booksearch/internal/book"
	"booksearch/internal/config"
	"booksearch/internal/platform/db"
	"booksearch/internal/platform/logging"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type seedAuthor struct {
	Name      string
	BirthYear *int
	DeathYear *int
}

type seedBook struct {
	CatalogID   int
	Title       *string
	Downloads   *int
	Authors     []seedAuthor
	Languages   []string
	Subjects    []string
	Bookshelves []string
	Formats     []book.Format
}

func ptr[T any](v T) *T { return &v }

func gutenbergFormats(id int) []book.Format {
	base := fmt.Sprintf("https://www.gutenberg.org/ebooks/%d", id)
	return []book.Format{
		{MimeType: "text/plain", URL: fmt.Sprintf("%s.txt.utf-8", base)},
		{MimeType: "text/html", URL: fmt.Sprintf("%s.html.images", base)},
		{MimeType: "application/epub+zip", URL: fmt.Sprintf("%s.epub3.images", base)},
	}
}

var demoCatalog = []seedBook{
	{
		CatalogID: 2701, Title: ptr("Moby Dick; Or, The Whale"), Downloads: ptr(500),
		Authors:     []seedAuthor{{"Melville, Herman", ptr(1819), ptr(1891)}},
		Languages:   []string{"en"},
		Subjects:    []string{"Whaling -- Fiction", "Sea stories"},
		Bookshelves: []string{"Best Books Ever Listings"},
		Formats:     gutenbergFormats(2701),
	},
	{
		CatalogID: 1342, Title: ptr("Pride and Prejudice"), Downloads: ptr(4200),
		Authors:     []seedAuthor{{"Austen, Jane", ptr(1775), ptr(1817)}},
		Languages:   []string{"en"},
		Subjects:    []string{"Courtship -- Fiction", "Love stories"},
		Bookshelves: []string{"Best Books Ever Listings", "Harvard Classics"},
		Formats:     gutenbergFormats(1342),
	},
	{
		CatalogID: 76, Title: ptr("Adventures of Huckleberry Finn"), Downloads: ptr(1900),
		Authors:     []seedAuthor{{"Twain, Mark", ptr(1835), ptr(1910)}},
		Languages:   []string{"en"},
		Subjects:    []string{"Adventure stories", "Mississippi River -- Fiction"},
		Bookshelves: []string{"Banned Books from Anne Haight's list"},
		Formats:     gutenbergFormats(76),
	},
	{
		CatalogID: 17989, Title: ptr("Le comte de Monte-Cristo, Tome I"), Downloads: ptr(800),
		Authors:     []seedAuthor{{"Dumas, Alexandre", ptr(1802), ptr(1870)}},
		Languages:   []string{"fr"},
		Subjects:    []string{"Adventure stories", "Revenge -- Fiction"},
		Bookshelves: []string{"FR Littérature"},
		Formats:     gutenbergFormats(17989),
	},
	{
		CatalogID: 2000, Title: ptr("Don Quijote"), Downloads: nil,
		Authors:   []seedAuthor{{"Cervantes Saavedra, Miguel de", ptr(1547), ptr(1616)}},
		Languages: []string{"es"},
		Subjects:  []string{"Knights and knighthood -- Spain -- Fiction"},
		Formats:   gutenbergFormats(2000),
	},
	{
		CatalogID: 10, Title: ptr("The King James Version of the Bible"), Downloads: ptr(1900),
		Languages:   []string{"en"},
		Subjects:    []string{"Bible"},
		Bookshelves: []string{"Christianity"},
		Formats:     []book.Format{{MimeType: "text/plain", URL: "https://www.gutenberg.org/ebooks/10.txt.utf-8"}},
	},
	{
		CatalogID: 99999, Title: nil, Downloads: ptr(3),
	},
}

// loader assigns the integer keys of dictionary and association rows.
type loader struct {
	batch  *pgx.Batch
	nextID map[string]int
	dict   map[string]map[string]int
}

func newLoader() *loader {
	return &loader{
		batch:  &pgx.Batch{},
		nextID: make(map[string]int),
		dict:   make(map[string]map[string]int),
	}
}

func (l *loader) id(table string) int {
	l.nextID[table]++
	return l.nextID[table]
}

func (l *loader) lookup(table, key string, insert func(id int)) int {
	if l.dict[table] == nil {
		l.dict[table] = make(map[string]int)
	}
	if id, ok := l.dict[table][key]; ok {
		return id
	}
	id := l.id(table)
	l.dict[table][key] = id
	insert(id)
	return id
}

func (l *loader) add(b seedBook) {
	bookID := l.id("books_book")
	l.batch.Queue(`INSERT INTO books_book (id, gutenberg_id, title, media_type, download_count)
		VALUES ($1, $2, $3, 'Text', $4) ON CONFLICT DO NOTHING`, bookID, b.CatalogID, b.Title, b.Downloads)

	for _, a := range b.Authors {
		authorID := l.lookup("books_author", a.Name, func(id int) {
			l.batch.Queue(`INSERT INTO books_author (id, name, birth_year, death_year) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
				id, a.Name, a.BirthYear, a.DeathYear)
		})
		l.batch.Queue(`INSERT INTO books_book_authors (id, book_id, author_id) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			l.id("books_book_authors"), bookID, authorID)
	}
	for _, code := range b.Languages {
		langID := l.lookup("books_language", code, func(id int) {
			l.batch.Queue(`INSERT INTO books_language (id, code) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, code)
		})
		l.batch.Queue(`INSERT INTO books_book_languages (id, book_id, language_id) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			l.id("books_book_languages"), bookID, langID)
	}
	for _, name := range b.Subjects {
		subjectID := l.lookup("books_subject", name, func(id int) {
			l.batch.Queue(`INSERT INTO books_subject (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, name)
		})
		l.batch.Queue(`INSERT INTO books_book_subjects (id, book_id, subject_id) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			l.id("books_book_subjects"), bookID, subjectID)
	}
	for _, name := range b.Bookshelves {
		shelfID := l.lookup("books_bookshelf", name, func(id int) {
			l.batch.Queue(`INSERT INTO books_bookshelf (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, name)
		})
		l.batch.Queue(`INSERT INTO books_book_bookshelves (id, book_id, bookshelf_id) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			l.id("books_book_bookshelves"), bookID, shelfID)
	}
	for _, f := range b.Formats {
		l.batch.Queue(`INSERT INTO books_format (id, book_id, mime_type, url) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
			l.id("books_format"), bookID, f.MimeType, f.URL)
	}
}

func syntheticBooks(n int, rng *rand.Rand) []seedBook {
	languages := []string{"en", "fr", "de", "es", "it", "pt", "nl", "fi"}
	topics := []string{"Fiction", "History", "Biography", "Poetry", "Philosophy", "Science", "Children", "Adventure", "Romance", "Mystery"}
	authors := []string{"Dickens, Charles", "Shakespeare, William", "Carroll, Lewis", "Doyle, Arthur Conan", "Wells, H. G.", "Verne, Jules", "Wilde, Oscar", "Hardy, Thomas"}

	out := make([]seedBook, 0, n)
	for i := 0; i < n; i++ {
		id := 100000 + i
		b := seedBook{
			CatalogID: id,
			Title:     ptr(fmt.Sprintf("Synthetic Volume %d: %s", i+1, topics[rng.Intn(len(topics))])),
			Authors:   []seedAuthor{{Name: authors[rng.Intn(len(authors))]}},
			Languages: []string{languages[rng.Intn(len(languages))]},
			Subjects:  []string{topics[rng.Intn(len(topics))] + " -- Fiction"},
			Formats:   gutenbergFormats(id),
		}
		if rng.Intn(5) > 0 {
			b.Downloads = ptr(rng.Intn(5000))
		}
		if rng.Intn(3) == 0 {
			b.Bookshelves = []string{topics[rng.Intn(len(topics))]}
		}
		out = append(out, b)
	}
	return out
}

func main() {
	count := flag.Int("synthetic", 0, "Number of generated books to add after the demo catalog")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseDSN, 2)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	defer pool.Close()

	books := append([]seedBook{}, demoCatalog...)
	books = append(books, syntheticBooks(*count, rand.New(rand.NewSource(1)))...)

	l := newLoader()
	for _, b := range books {
		l.add(b)
	}

	log.Info("inserting catalog", zap.Int("books", len(books)), zap.Int("statements", l.batch.Len()))
	if err := pool.SendBatch(ctx, l.batch).Close(); err != nil {
		log.Fatal("insert catalog", zap.Error(err))
	}

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM books_book").Scan(&total); err != nil {
		log.Fatal("count books", zap.Error(err))
	}
	log.Info("seed complete", zap.Int("total_books", total))
}
