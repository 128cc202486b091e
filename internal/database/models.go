package database

// Subscriber is a newsletter recipient.
type Subscriber struct {
	ID        int64
	Email     string
	IsActive  bool
	CreatedAt *string
}

// Newsletter is an archived published newsletter.
type Newsletter struct {
	ID             int64
	RunID          string
	Date           string
	BodyMarkdown   string
	RecipientCount int
	PublishedAt    *string
}

// SourceArticle is a cached piece of gathered source material for a run date.
type SourceArticle struct {
	ID            int64
	RunDate       string
	URL           string
	Title         string
	Source        *string
	PublishedDate *string
	Content       *string
	CollectedAt   *string
}

// RunSummary is a compact view of a flow run for listings.
type RunSummary struct {
	RunID      string
	Date       string
	Status     string
	RetryCount int
	FailReason string
	UpdatedAt  *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalRuns         int
	PublishedRuns     int
	FailedRuns        int
	Newsletters       int
	SourceArticles    int
	TotalSubscribers  int
	ActiveSubscribers int
}
