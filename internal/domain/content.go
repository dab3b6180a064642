package domain

import "time"

// ContentType names the source table a content item was normalized from.
type ContentType string

const (
	ContentEvent    ContentType = "event"
	ContentArticle  ContentType = "article"
	ContentResource ContentType = "resource"
)

// ContentItem is the common shape events, articles and resources are normalized into.
// It is built per request and only persisted as part of an edition's sections.
type ContentItem struct {
	ID             string      `json:"id"`
	Type           ContentType `json:"type"`
	Title          string      `json:"title"`
	Summary        string      `json:"summary,omitempty"`
	Date           *time.Time  `json:"date,omitempty"`
	URL            string      `json:"url,omitempty"`
	ImageURL       string      `json:"image_url,omitempty"`
	RelevanceScore float64     `json:"relevance_score,omitempty"`
}

// EventRow is a row of the events table as read by the aggregator.
type EventRow struct {
	ID             string
	Title          string
	Description    string
	Date           time.Time
	StartTime      string
	Location       string
	URL            string
	RelevanceScore float64
	Status         string
}

// ArticleRow is a row of the articles table.
type ArticleRow struct {
	ID            string
	Title         string
	Excerpt       string
	FeaturedImage string
	SourceURL     string
	InterestScore float64
	PublishedAt   time.Time
	Status        string
}

// ResourceRow is a row of the resources table.
type ResourceRow struct {
	ID          string
	Title       string
	Description string
	WebsiteURL  string
	Priority    int
	IsActive    bool
	CategoryID  string
}

// Source row statuses the aggregator filters on.
const (
	EventStatusApproved    = "approved"
	ArticleStatusPublished = "published"
)

// MemberCounts summarizes the hub (community) and governance (coop) membership tables.
type MemberCounts struct {
	CommunityMembers int
	ActiveMembers    int
	VerifiedCreators int
	CoopMembers      int
	NewThisWeek      int
}
