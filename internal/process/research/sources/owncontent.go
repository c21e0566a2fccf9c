package sources

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

const (
	defaultOwnContentMaxPosts = 50
	maxHomepagePosts          = 30
	ownContentFetchLimit      = 4
	topicMaxWords             = 4
	postSourceSitemap         = "sitemap"
	postSourceFeed            = "feed"
	postSourceHomepage        = "homepage"
)

var feedPaths = []string{"/feed", "/rss.xml", "/atom.xml"}

var (
	topicPrefixRe = regexp.MustCompile(`(?i)^(how to|what is|why|when|where|guide to|introduction to)\s*`)
	topicSuffixRe = regexp.MustCompile(`(?i)\s*(guide|tutorial|tips|tricks|best practices)$`)
	slugExtRe     = regexp.MustCompile(`\.html?$`)
)

// Post is one published article of the project's blog.
type Post struct {
	URL          string
	Title        string
	LastModified *time.Time
	Source       string
}

// OwnContent is what the project already covers. Keys are lowercase.
type OwnContent struct {
	Posts    []Post
	Keywords map[string]string // keyword -> post URL
	Topics   map[string]string // topic -> post URL
}

// Covers reports whether keyword is already covered, either as an exact
// keyword or through a topic that contains it or is contained by it.
func (c *OwnContent) Covers(keyword string) (string, bool) {
	if c == nil {
		return "", false
	}

	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return "", false
	}

	if u, ok := c.Keywords[kw]; ok {
		return u, true
	}

	// Topics are scanned in sorted order.
	for _, topic := range slices.Sorted(maps.Keys(c.Topics)) {
		if topic != "" && (strings.Contains(kw, topic) || strings.Contains(topic, kw)) {
			return c.Topics[topic], true
		}
	}

	return "", false
}

// OwnContentAnalyzer discovers a blog's posts and the keywords they cover.
type OwnContentAnalyzer struct {
	client    *http.Client
	maxPosts  int
	userAgent string
	logger    *zerolog.Logger
}

// NewOwnContentAnalyzer builds an OwnContentAnalyzer.
func NewOwnContentAnalyzer(cfg config.SourcesConfig, logger *zerolog.Logger) *OwnContentAnalyzer {
	maxPosts := cfg.OwnContentMaxPosts
	if maxPosts <= 0 {
		maxPosts = defaultOwnContentMaxPosts
	}

	return &OwnContentAnalyzer{
		client:    &http.Client{Timeout: cfg.CompetitorTimeout},
		maxPosts:  maxPosts,
		userAgent: cfg.BrowserUserAgent,
		logger:    logger,
	}
}

// Analyze reads the blog sitemap, then its RSS/Atom feed, then the blog
// homepage until one of them lists posts, and extracts keywords from up to
// maxPosts posts. Posts that cannot be fetched contribute only their slug
// topic.
func (a *OwnContentAnalyzer) Analyze(ctx context.Context, blogURL string) (*OwnContent, error) {
	blogURL = strings.TrimRight(blogURL, "/")

	posts := a.sitemapPosts(ctx, blogURL)
	if len(posts) == 0 {
		posts = a.feedPosts(ctx, blogURL)
	}

	if len(posts) == 0 {
		var err error

		posts, err = a.homepagePosts(ctx, blogURL)
		if err != nil {
			return nil, err
		}
	}

	if len(posts) > a.maxPosts {
		posts = posts[:a.maxPosts]
	}

	content := &OwnContent{
		Posts:    posts,
		Keywords: make(map[string]string),
		Topics:   make(map[string]string),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	g.SetLimit(ownContentFetchLimit)

	for _, post := range posts {
		if topic := extractTopic(post.Title); topic != "" {
			content.Topics[topic] = post.URL
		}

		g.Go(func() error {
			keywords := a.postKeywords(ctx, post.URL)

			mu.Lock()
			defer mu.Unlock()

			for _, kw := range keywords {
				if _, ok := content.Keywords[kw]; !ok {
					content.Keywords[kw] = post.URL
				}
			}

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // goroutines never fail

	a.logger.Info().
		Str(logKeyURL, blogURL).
		Int("posts", len(posts)).
		Int("keywords", len(content.Keywords)).
		Msg("own content analyzed")

	return content, nil
}

type sitemapURLSet struct {
	URLs []struct {
		Loc     string `xml:"loc"`
		LastMod string `xml:"lastmod"`
	} `xml:"url"`
}

func (a *OwnContentAnalyzer) sitemapPosts(ctx context.Context, blogURL string) []Post {
	body, err := fetch(ctx, a.client, blogURL+"/sitemap.xml", a.userAgent)
	if err != nil {
		a.logger.Debug().Err(err).Str(logKeyURL, blogURL).Msg("sitemap unavailable")
		return nil
	}

	posts, err := parseSitemap(body)
	if err != nil {
		a.logger.Debug().Err(err).Str(logKeyURL, blogURL).Msg("sitemap unreadable")
		return nil
	}

	return posts
}

// parseSitemap keeps the blog and article URLs of a sitemap urlset.
func parseSitemap(body []byte) ([]Post, error) {
	var set sitemapURLSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	var posts []Post

	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if !strings.Contains(loc, "/blog/") && !strings.Contains(loc, "/article/") {
			continue
		}

		post := Post{URL: loc, Title: titleFromURL(loc), Source: postSourceSitemap}

		if u.LastMod != "" {
			if t, err := dateparse.ParseAny(strings.TrimSpace(u.LastMod)); err == nil {
				post.LastModified = &t
			}
		}

		posts = append(posts, post)
	}

	return posts, nil
}

func (a *OwnContentAnalyzer) feedPosts(ctx context.Context, blogURL string) []Post {
	for _, p := range feedPaths {
		body, err := fetch(ctx, a.client, blogURL+p, a.userAgent)
		if err != nil {
			continue
		}

		posts, err := parseFeed(body)
		if err != nil {
			a.logger.Debug().Err(err).Str(logKeyURL, blogURL+p).Msg("feed unreadable")
			continue
		}

		if len(posts) > 0 {
			return posts
		}
	}

	return nil
}

// parseFeed lists the linked entries of an RSS or Atom feed.
func parseFeed(body []byte) ([]Post, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	posts := make([]Post, 0, len(feed.Items))

	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		post := Post{URL: link, Title: strings.TrimSpace(item.Title), Source: postSourceFeed}
		if post.Title == "" {
			post.Title = titleFromURL(link)
		}

		switch {
		case item.UpdatedParsed != nil:
			post.LastModified = item.UpdatedParsed
		case item.PublishedParsed != nil:
			post.LastModified = item.PublishedParsed
		}

		posts = append(posts, post)
	}

	return posts, nil
}

func (a *OwnContentAnalyzer) homepagePosts(ctx context.Context, blogURL string) ([]Post, error) {
	body, err := fetch(ctx, a.client, blogURL, a.userAgent)
	if err != nil {
		return nil, fmt.Errorf("fetch blog homepage: %w", err)
	}

	return parseHomepageLinks(body, blogURL)
}

// parseHomepageLinks returns linked posts whose path looks like an article.
func parseHomepageLinks(body []byte, blogURL string) ([]Post, error) {
	base, err := url.Parse(blogURL + "/")
	if err != nil {
		return nil, fmt.Errorf("parse blog url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse blog homepage: %w", err)
	}

	var posts []Post

	seen := make(map[string]struct{})

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		title := strings.Join(strings.Fields(s.Text()), " ")

		if title == "" || !isArticlePath(href) {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}

		abs := base.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			return true
		}

		seen[abs] = struct{}{}
		posts = append(posts, Post{URL: abs, Title: title, Source: postSourceHomepage})

		return len(posts) < maxHomepagePosts
	})

	return posts, nil
}

func isArticlePath(href string) bool {
	return strings.Contains(href, "/blog/") || strings.Contains(href, "/article/") || strings.Contains(href, "/post/")
}

func (a *OwnContentAnalyzer) postKeywords(ctx context.Context, postURL string) []string {
	body, err := fetch(ctx, a.client, postURL, a.userAgent)
	if err != nil {
		a.logger.Debug().Err(err).Str(logKeyURL, postURL).Msg("post fetch failed")
		return nil
	}

	page, err := ParsePage(body, postURL)
	if err != nil {
		return nil
	}

	keywords := make([]string, 0, len(page.MetaKeywords))
	for _, kw := range page.MetaKeywords {
		keywords = append(keywords, strings.ToLower(kw))
	}

	keywords = append(keywords, page.HeadingKeywords()...)

	return uniqueStrings(keywords)
}

// titleFromURL turns the last path segment into words.
func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	slug := path.Base(strings.TrimRight(u.Path, "/"))
	if slug == "." || slug == "/" {
		return ""
	}

	slug = slugExtRe.ReplaceAllString(slug, "")

	return strings.TrimSpace(strings.ReplaceAll(slug, "-", " "))
}

// extractTopic strips framing words from a title and keeps its first words.
func extractTopic(title string) string {
	topic := strings.TrimSpace(title)
	topic = topicPrefixRe.ReplaceAllString(topic, "")
	topic = topicSuffixRe.ReplaceAllString(topic, "")

	words := strings.Fields(strings.ToLower(topic))
	if len(words) > topicMaxWords {
		words = words[:topicMaxWords]
	}

	return strings.Join(words, " ")
}
