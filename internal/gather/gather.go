package gather

import (
	"fmt"
	"log"
	"time"

	"geonews/internal/config"
	"geonews/internal/database"
)

// Item is one piece of gathered source material for the drafting stage.
type Item struct {
	Source        string
	Title         string
	URL           string
	PublishedDate string // YYYY-MM-DD or empty
	Content       string
}

// Gatherer collects source material from think-tank RSS feeds and NewsAPI,
// scraping full article text where the feeds only carry summaries. Results
// are cached per run date so drafting retries do not re-crawl.
type Gatherer struct {
	db         *database.DB
	feedParser *FeedParser
	newsClient *NewsAPIClient
	scraper    *Scraper
	newsQuery  string
	daysBack   int
}

// NewGatherer creates a gatherer. The NewsAPI key is injected by the
// caller; an empty key disables that source.
func NewGatherer(cfg *config.Config, db *database.DB, newsAPIKey string) *Gatherer {
	g := &Gatherer{
		db:       db,
		scraper:  NewScraper(15 * time.Second),
		daysBack: cfg.Gather.DaysBack,
	}
	if g.daysBack <= 0 {
		g.daysBack = 7
	}

	if len(cfg.Gather.Feeds) > 0 {
		feeds := make([]FeedConfig, len(cfg.Gather.Feeds))
		for i, f := range cfg.Gather.Feeds {
			feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
		}
		g.feedParser = NewFeedParser(feeds)
	}

	if cfg.Gather.NewsAPI.Enabled && newsAPIKey != "" {
		g.newsClient = NewNewsAPIClient(newsAPIKey)
		g.newsQuery = cfg.Gather.NewsAPI.Query
	}

	return g
}

// Materials returns the source material for a run date, collecting it on
// the first call and serving the cache afterwards. The cutoff window is
// daysBack days before the run date.
func (g *Gatherer) Materials(date string) ([]Item, error) {
	cached, err := g.db.GetSourceArticles(date)
	if err != nil {
		return nil, fmt.Errorf("reading article cache: %w", err)
	}
	if len(cached) > 0 {
		log.Printf("Using %d cached articles for %s", len(cached), date)
		return fromCache(cached), nil
	}

	runDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("invalid run date %q: %w", date, err)
	}
	cutoff := runDate.AddDate(0, 0, -g.daysBack)

	var items []Item
	seen := make(map[string]struct{})

	if g.feedParser != nil {
		log.Println("Collecting from RSS feeds...")
		for _, entry := range g.feedParser.ParseAll(cutoff) {
			if _, ok := seen[entry.URL]; ok {
				continue
			}
			seen[entry.URL] = struct{}{}
			items = append(items, Item(entry))
		}
	}

	if g.newsClient != nil {
		log.Println("Collecting from NewsAPI...")
		from := cutoff.Format("2006-01-02")
		for _, a := range g.newsClient.Search(g.newsQuery, from, date, 30) {
			if _, ok := seen[a.URL]; ok {
				continue
			}
			seen[a.URL] = struct{}{}
			items = append(items, Item(a))
		}
	}

	g.fillMissingContent(items)
	g.cache(date, items)

	log.Printf("Gathered %d articles for %s (window %s..%s)",
		len(items), date, cutoff.Format("2006-01-02"), date)
	return items, nil
}

// fillMissingContent scrapes full article text for items whose feed entry
// carried no body.
func (g *Gatherer) fillMissingContent(items []Item) {
	for i := range items {
		if items[i].Content != "" {
			continue
		}
		content, err := g.scraper.FetchContent(items[i].URL)
		if err != nil || content == "" {
			log.Printf("No extractable content from: %s", items[i].URL)
			continue
		}
		items[i].Content = content
	}
}

func (g *Gatherer) cache(date string, items []Item) {
	for _, item := range items {
		var source, pubDate, content *string
		if item.Source != "" {
			source = &item.Source
		}
		if item.PublishedDate != "" {
			pubDate = &item.PublishedDate
		}
		if item.Content != "" {
			content = &item.Content
		}
		g.db.InsertSourceArticle(date, item.URL, item.Title, source, pubDate, content)
	}
}

func fromCache(articles []database.SourceArticle) []Item {
	items := make([]Item, 0, len(articles))
	for _, a := range articles {
		item := Item{URL: a.URL, Title: a.Title}
		if a.Source != nil {
			item.Source = *a.Source
		}
		if a.PublishedDate != nil {
			item.PublishedDate = *a.PublishedDate
		}
		if a.Content != nil {
			item.Content = *a.Content
		}
		items = append(items, item)
	}
	return items
}
