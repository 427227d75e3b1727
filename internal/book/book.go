package book

// Book is a row of the catalog's root entity.
// ID is the internal storage key; CatalogID is the identifier exposed to clients.
type Book struct {
	ID            int
	CatalogID     int
	Title         *string
	MediaType     string
	DownloadCount *int
}

// Author is a book author as exposed in search results.
type Author struct {
	Name      string `json:"name"`
	BirthYear *int   `json:"birth_year"`
	DeathYear *int   `json:"death_year"`
}

// Format is a downloadable rendition of a book.
type Format struct {
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}

// Record is the denormalized view of one book returned to clients.
type Record struct {
	ID            int      `json:"id"`
	Title         *string  `json:"title"`
	Authors       []Author `json:"authors"`
	Languages     []string `json:"languages"`
	Subjects      []string `json:"subjects"`
	Bookshelves   []string `json:"bookshelves"`
	DownloadLinks []Format `json:"download_links"`
}

// Result is one page of a search together with the total match count.
type Result struct {
	Count    int
	Page     int
	PageSize int
	NumPages int
	Records  []Record
}
