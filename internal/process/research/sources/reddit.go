package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

const (
	redditListingLimit = 30
	redditTopPosts     = 15
	redditPermalinkURL = "https://reddit.com"
	defaultSubreddit   = "all"
)

var sectorSubreddits = map[string]string{
	"tech":      "technology",
	"marketing": "marketing",
	"seo":       "SEO",
	"saas":      "SaaS",
	"health":    "health",
	"finance":   "personalfinance",
	"ecommerce": "ecommerce",
	"ai":        "artificial",
}

// SubredditForSector maps a sector hint to the subreddit to listen to.
func SubredditForSector(sector string) string {
	if sub, ok := sectorSubreddits[strings.ToLower(strings.TrimSpace(sector))]; ok {
		return sub
	}

	return defaultSubreddit
}

// RedditSource turns popular post titles of a sector subreddit into keywords.
type RedditSource struct {
	baseURL   string
	client    *http.Client
	minScore  int
	userAgent string
	logger    *zerolog.Logger
}

// NewRedditSource builds a RedditSource.
func NewRedditSource(cfg config.SourcesConfig, logger *zerolog.Logger) *RedditSource {
	return &RedditSource{
		baseURL:   strings.TrimRight(cfg.RedditBaseURL, "/"),
		client:    &http.Client{Timeout: cfg.Timeout},
		minScore:  cfg.TrendsMinScore,
		userAgent: cfg.BotUserAgent,
		logger:    logger,
	}
}

func (s *RedditSource) Name() string {
	return SourceReddit
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title       string `json:"title"`
	Score       int    `json:"score"`
	Permalink   string `json:"permalink"`
	NumComments int    `json:"num_comments"`
}

func (s *RedditSource) Fetch(ctx context.Context, q Query) ([]Candidate, error) {
	subreddit := SubredditForSector(q.Sector)
	listingURL := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", s.baseURL, subreddit, redditListingLimit)

	body, err := fetch(ctx, s.client, listingURL, s.userAgent)
	if err != nil {
		return nil, err
	}

	posts, err := parseRedditListing(body)
	if err != nil {
		return nil, err
	}

	posts = topPosts(posts, s.minScore, redditTopPosts)

	s.logger.Debug().Str("subreddit", subreddit).Int("posts", len(posts)).Msg("reddit trends fetched")

	var candidates []Candidate

	for _, post := range posts {
		for _, kw := range ExtractKeywords(post.Title, maxTextKeywords) {
			candidates = append(candidates, Candidate{
				Keyword:   kw,
				Source:    SourceReddit,
				SourceURL: redditPermalinkURL + post.Permalink,
			})
		}
	}

	return candidates, nil
}

func parseRedditListing(body []byte) ([]redditPost, error) {
	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("parse reddit json: %w", err)
	}

	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}

	return posts, nil
}

// topPosts keeps posts scoring above minScore, highest first, up to limit.
func topPosts(posts []redditPost, minScore, limit int) []redditPost {
	kept := make([]redditPost, 0, len(posts))

	for _, p := range posts {
		if p.Score > minScore {
			kept = append(kept, p)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	if len(kept) > limit {
		kept = kept[:limit]
	}

	return kept
}
