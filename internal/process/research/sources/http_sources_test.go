package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

func testSourcesConfig(baseURL string) config.SourcesConfig {
	return config.SourcesConfig{
		Timeout:            5 * time.Second,
		SuggestMax:         2,
		SuggestBaseURL:     baseURL + "/complete/search",
		SERPBaseURL:        baseURL + "/search",
		SERPMaxSeeds:       5,
		RedditBaseURL:      baseURL,
		TrendsMinScore:     50,
		TrendsFeedURL:      baseURL + "/trends/rss",
		CompetitorMax:      3,
		CompetitorTimeout:  5 * time.Second,
		BrowserUserAgent:   "test-browser",
		BotUserAgent:       "test-bot",
		OwnContentMaxPosts: 50,
	}
}

func writeBody(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()

	if _, err := w.Write([]byte(body)); err != nil {
		t.Errorf("failed to write response: %v", err)
	}
}

func TestSuggestSource_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "firefox", r.URL.Query().Get("client"))
		assert.Equal(t, "en", r.URL.Query().Get("hl"))

		if r.URL.Query().Get("q") == "broken" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		writeBody(t, w, `["cloud backup",["cloud backup pricing","cloud backup for business","cloud backup free"]]`)
	}))
	defer ts.Close()

	logger := zerolog.Nop()
	src := NewSuggestSource(testSourcesConfig(ts.URL), &logger)

	got, err := src.Fetch(context.Background(), Query{Seeds: []string{"cloud backup", "broken"}, Language: "en"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "cloud backup pricing", got[0].Keyword)
	assert.Equal(t, SourceSuggest, got[0].Source)
	require.NotNil(t, got[0].Popularity)
	require.NotNil(t, got[1].Popularity)
	assert.Greater(t, *got[0].Popularity, *got[1].Popularity)
}

func TestSuggestSource_AllSeedsFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	logger := zerolog.Nop()
	src := NewSuggestSource(testSourcesConfig(ts.URL), &logger)

	_, err := src.Fetch(context.Background(), Query{Seeds: []string{"a", "b"}})
	assert.Error(t, err)
}

const serpHTML = `<html><body>
<div class="xpdopen">snippet</div>
<div class="related-question-pair">How does cloud backup work?</div>
<div class="related-question-pair">Is cloud backup safe?</div>
<div class="s75CSd">cloud backup comparison</div>
<div class="s75CSd">best cloud backup</div>
</body></html>`

func TestParseSERPPage(t *testing.T) {
	page, err := ParseSERPPage("cloud backup", []byte(serpHTML))
	require.NoError(t, err)

	assert.True(t, page.Features.FeaturedSnippet)
	assert.True(t, page.Features.PeopleAlsoAsk)
	assert.False(t, page.Features.VideoCarousel)
	assert.False(t, page.Features.LocalPack)
	assert.Equal(t, []string{"cloud backup comparison", "best cloud backup"}, page.RelatedSearches)
	assert.Equal(t, []string{"How does cloud backup work?", "Is cloud backup safe?"}, page.Questions)

	candidates := page.candidates()
	require.Len(t, candidates, 5)
	require.NotNil(t, candidates[0].SERP)
	assert.True(t, candidates[0].SERP.FeaturedSnippet)
	assert.Nil(t, candidates[1].SERP)
}

func TestSERPSource_Fetch(t *testing.T) {
	var calls atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		assert.Equal(t, "test-browser", r.Header.Get(headerUserAgent))
		writeBody(t, w, serpHTML)
	}))
	defer ts.Close()

	cfg := testSourcesConfig(ts.URL)
	cfg.SERPMaxSeeds = 2

	logger := zerolog.Nop()
	src := NewSERPSource(cfg, &logger)

	got, err := src.Fetch(context.Background(), Query{Seeds: []string{"a", "b", "c"}, Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, got, 10)
}

func TestRedditSource_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/technology/hot.json", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-bot", r.Header.Get(headerUserAgent))

		writeBody(t, w, `{"data":{"children":[
			{"data":{"title":"Low scoring post about servers","score":10,"permalink":"/r/technology/1"}},
			{"data":{"title":"Backup strategies explained","score":120,"permalink":"/r/technology/2"}},
			{"data":{"title":"Kubernetes operators","score":300,"permalink":"/r/technology/3"}}
		]}}`)
	}))
	defer ts.Close()

	logger := zerolog.Nop()
	src := NewRedditSource(testSourcesConfig(ts.URL), &logger)

	got, err := src.Fetch(context.Background(), Query{Sector: "tech"})
	require.NoError(t, err)

	keywords := make([]string, 0, len(got))
	for _, c := range got {
		keywords = append(keywords, c.Keyword)
	}

	assert.Equal(t, []string{"kubernetes", "operators", "backup", "strategies", "explained"}, keywords)
	assert.Equal(t, "https://reddit.com/r/technology/3", got[0].SourceURL)
}

func TestSubredditForSector(t *testing.T) {
	assert.Equal(t, "personalfinance", SubredditForSector("finance"))
	assert.Equal(t, "SEO", SubredditForSector("SEO"))
	assert.Equal(t, "all", SubredditForSector("default"))
	assert.Equal(t, "all", SubredditForSector("gardening"))
}

func TestTrendsSource_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "IT", r.URL.Query().Get("geo"))

		writeBody(t, w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:ht="https://trends.google.com/trending/rss">
<channel><title>Daily trends</title>
<item><title>cloud backup outage</title><link>https://example.com/a</link><ht:approx_traffic>2,000+</ht:approx_traffic></item>
<item><title>football results</title><link>https://example.com/b</link><ht:approx_traffic>500+</ht:approx_traffic></item>
</channel></rss>`)
	}))
	defer ts.Close()

	logger := zerolog.Nop()
	src := NewTrendsSource(testSourcesConfig(ts.URL), &logger)

	got, err := src.Fetch(context.Background(), Query{Seeds: []string{"cloud backup"}, Language: "it"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cloud backup outage", got[0].Keyword)
	require.NotNil(t, got[0].Popularity)
	assert.InDelta(t, 82.5, *got[0].Popularity, 0.1)
}

const competitorHTML = `<html><head>
<title>Acme Backup</title>
<meta name="description" content="Backup for teams">
<meta name="keywords" content="cloud backup, disaster recovery, ">
<script>var tracking = "ignored words everywhere";</script>
</head><body>
<h1>Backup without worries</h1>
<h2>Pricing</h2><h2>Security</h2>
<p>Encrypted snapshots protect business files automatically.</p>
</body></html>`

func TestParsePage(t *testing.T) {
	page, err := ParsePage([]byte(competitorHTML), "https://acme.example/")
	require.NoError(t, err)

	assert.Equal(t, "Acme Backup", page.Title)
	assert.Equal(t, "Backup for teams", page.MetaDescription)
	assert.Equal(t, []string{"cloud backup", "disaster recovery"}, page.MetaKeywords)
	assert.Equal(t, []string{"Backup without worries"}, page.H1)
	assert.Equal(t, []string{"Pricing", "Security"}, page.H2)
	assert.NotContains(t, page.BodyText, "tracking")
	assert.Contains(t, page.BodyText, "snapshots")
}

func TestCompetitorSource_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		writeBody(t, w, competitorHTML)
	}))
	defer ts.Close()

	logger := zerolog.Nop()
	src := NewCompetitorSource(testSourcesConfig(ts.URL), &logger)

	got, err := src.Fetch(context.Background(), Query{CompetitorURLs: []string{ts.URL + "/missing", ts.URL + "/page"}})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "cloud backup", got[0].Keyword)
	assert.Equal(t, "disaster recovery", got[1].Keyword)

	for _, c := range got {
		assert.Equal(t, SourceCompetitor, c.Source)
		assert.Equal(t, ts.URL+"/page", c.SourceURL)
	}
}

func TestOwnContentAnalyzer_Sitemap(t *testing.T) {
	var ts *httptest.Server

	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sitemap.xml":
			writeBody(t, w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<url><loc>`+ts.URL+`/blog/how-to-choose-cloud-backup</loc><lastmod>2025-03-01</lastmod></url>
<url><loc>`+ts.URL+`/about</loc></url>
</urlset>`)
		case "/blog/how-to-choose-cloud-backup":
			writeBody(t, w, `<html><head><title>Choosing storage</title>
<meta name="keywords" content="Backup Plans"></head><body><h1>Retention policies</h1></body></html>`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	logger := zerolog.Nop()
	analyzer := NewOwnContentAnalyzer(testSourcesConfig(ts.URL), &logger)

	content, err := analyzer.Analyze(context.Background(), ts.URL+"/")
	require.NoError(t, err)
	require.Len(t, content.Posts, 1)
	assert.Equal(t, "how to choose cloud backup", content.Posts[0].Title)
	require.NotNil(t, content.Posts[0].LastModified)

	postURL := ts.URL + "/blog/how-to-choose-cloud-backup"

	u, ok := content.Covers("Backup Plans")
	assert.True(t, ok)
	assert.Equal(t, postURL, u)

	_, ok = content.Covers("retention")
	assert.True(t, ok)

	// Topic "choose cloud backup" contains the keyword.
	_, ok = content.Covers("cloud backup")
	assert.True(t, ok)

	_, ok = content.Covers("kubernetes")
	assert.False(t, ok)
}

func TestOwnContentAnalyzer_FeedFallback(t *testing.T) {
	var ts *httptest.Server

	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rss.xml":
			writeBody(t, w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Blog</title>
<item><title>Restic vs Borg</title><link>`+ts.URL+`/posts/restic-vs-borg</link><pubDate>Mon, 03 Mar 2025 10:00:00 GMT</pubDate></item>
<item><title>No link</title></item>
</channel></rss>`)
		case "/posts/restic-vs-borg":
			writeBody(t, w, `<html><head><title>Restic vs Borg</title></head><body><h2>Deduplication</h2></body></html>`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	logger := zerolog.Nop()
	analyzer := NewOwnContentAnalyzer(testSourcesConfig(ts.URL), &logger)

	content, err := analyzer.Analyze(context.Background(), ts.URL)
	require.NoError(t, err)
	require.Len(t, content.Posts, 1)
	assert.Equal(t, postSourceFeed, content.Posts[0].Source)
	assert.Equal(t, "Restic vs Borg", content.Posts[0].Title)
	require.NotNil(t, content.Posts[0].LastModified)

	_, ok := content.Covers("restic vs borg")
	assert.True(t, ok)
}

func TestParseHomepageLinks(t *testing.T) {
	body := `<html><body>
<a href="/blog/first-post">First post</a>
<a href="/blog/first-post">First post again</a>
<a href="https://other.example/article/x">Article X</a>
<a href="/contact">Contact</a>
<a href="/post/empty"></a>
</body></html>`

	posts, err := parseHomepageLinks([]byte(body), "https://blog.example")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "https://blog.example/blog/first-post", posts[0].URL)
	assert.Equal(t, "https://other.example/article/x", posts[1].URL)
}

func TestExtractTopic(t *testing.T) {
	assert.Equal(t, "choose cloud backup", extractTopic("How to choose cloud backup"))
	assert.Equal(t, "kubernetes", extractTopic("Kubernetes tutorial"))
	assert.Equal(t, "one two three four", extractTopic("one two three four five"))
}
