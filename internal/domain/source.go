package domain

// SourceSite is a configured upstream CMS video API site.
type SourceSite struct {
	Key       string  `json:"id"`
	Name      string  `json:"name"`
	API       string  `json:"api"`
	Detail    string  `json:"detail,omitempty"`
	Disabled  bool    `json:"-"`
	RateLimit float64 `json:"-"`
}

// Shelf is one source's row on the home page.
type Shelf struct {
	Source SourceSite    `json:"source"`
	Items  []VideoRecord `json:"items"`
	Error  string        `json:"error,omitempty"`
}

// FeedItem is the compact projection served by the tag feed.
type FeedItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Poster string `json:"poster"`
	Rate   string `json:"rate"`
	Year   string `json:"year"`
}
