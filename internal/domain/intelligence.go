package domain

import (
	"encoding/json"
	"time"
)

// Intelligence services folded into the IntelligenceContext.
const (
	ServiceCommunity = "community"
	ServiceEvents    = "events"
	ServiceNewsroom  = "newsroom"
	ServiceResources = "ivor_resources"
)

// SynthesisServices is the fixed set of services the synthesizer reads.
var SynthesisServices = []string{ServiceCommunity, ServiceEvents, ServiceNewsroom, ServiceResources}

// Intelligence types produced by the aggregator and the agent executor.
const (
	IntelResources        = "resources"
	IntelOrganizingEvents = "organizing_events"
	IntelGrowthAnalytics  = "growth_analytics"
	IntelCommunityNeeds   = "community_needs"
	IntelCampaigns        = "campaigns"
)

// Priority and urgency levels.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// IntelligenceTTL is how long an intelligence record stays fresh.
const IntelligenceTTL = 7 * 24 * time.Hour

// IntelligenceRecord is a cached summary of one data domain, unique per (type, service).
type IntelligenceRecord struct {
	ID               string          `json:"id,omitempty"`
	IntelligenceType string          `json:"intelligence_type"`
	Service          string          `json:"ivor_service"`
	Data             json.RawMessage `json:"intelligence_data"`
	Summary          string          `json:"summary"`
	KeyInsights      []string        `json:"key_insights"`
	ActionableItems  []string        `json:"actionable_items"`
	RelevanceScore   float64         `json:"relevance_score"`
	Priority         string          `json:"priority"`
	Urgency          string          `json:"urgency"`
	Tags             []string        `json:"tags"`
	DataTimestamp    time.Time       `json:"data_timestamp"`
	ExpiresAt        time.Time       `json:"expires_at"`
	IsStale          bool            `json:"is_stale"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ArticleRef is the compact top-article reference kept in the context.
type ArticleRef struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// EventRef is the compact next-event reference kept in the context.
type EventRef struct {
	Title    string     `json:"title"`
	Date     *time.Time `json:"date,omitempty"`
	Location string     `json:"location,omitempty"`
}

// IntelligenceContext is the in-memory snapshot used by prompts.
// Fields of services without a fresh record keep their zero values.
type IntelligenceContext struct {
	CommunitySize      int         `json:"community_size"`
	CoopMembers        int         `json:"coop_members"`
	VerifiedCreators   int         `json:"verified_creators"`
	UpcomingEventCount int         `json:"upcoming_event_count"`
	WeeklyArticleCount int         `json:"weekly_article_count"`
	TotalResources     int         `json:"total_resources"`
	TopArticle         *ArticleRef `json:"top_article,omitempty"`
	NextEvent          *EventRef   `json:"next_event,omitempty"`
	KeyInsights        []string    `json:"key_insights"`
}

// Empty reports whether no service contributed to the context.
func (c IntelligenceContext) Empty() bool {
	return c.CommunitySize == 0 && c.CoopMembers == 0 && c.VerifiedCreators == 0 &&
		c.UpcomingEventCount == 0 && c.WeeklyArticleCount == 0 && c.TotalResources == 0 &&
		c.TopArticle == nil && c.NextEvent == nil && len(c.KeyInsights) == 0
}

// Payloads stored in intelligence_data, one per service.

type CommunityData struct {
	TotalMembers     int `json:"total_members"`
	ActiveMembers    int `json:"active_members"`
	CoopMembers      int `json:"coop_members"`
	VerifiedCreators int `json:"verified_creators"`
	NewThisWeek      int `json:"new_members_week"`
}

type EventsData struct {
	UpcomingCount int       `json:"upcoming_count"`
	NextEvent     *EventRef `json:"next_event,omitempty"`
}

type NewsroomData struct {
	WeeklyCount int         `json:"weekly_count"`
	TopArticle  *ArticleRef `json:"top_article,omitempty"`
}

type ResourcesData struct {
	TotalResources int            `json:"total_resources"`
	Categories     map[string]int `json:"categories"`
}

// BucketSummary is the caller-visible outcome of one aggregated bucket.
type BucketSummary struct {
	Type     string `json:"type"`
	Summary  string `json:"summary"`
	Priority string `json:"priority"`
}

// AggregationResult reports an intelligence aggregation run.
type AggregationResult struct {
	RecordsTouched int             `json:"records_touched"`
	Buckets        []BucketSummary `json:"buckets"`
}
