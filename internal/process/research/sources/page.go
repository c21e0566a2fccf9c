package sources

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	maxH1Titles = 10
	maxH2Titles = 20
)

// Page is the keyword-relevant structure of an HTML document.
type Page struct {
	URL             string
	Title           string
	MetaDescription string
	MetaKeywords    []string
	H1              []string
	H2              []string
	BodyText        string
}

// ParsePage extracts headings and meta data with goquery and the readable
// body text with readability. Pages readability rejects fall back to the
// raw body text without scripts and styles.
func ParsePage(body []byte, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{
		URL:             pageURL,
		Title:           strings.TrimSpace(doc.Find("title").First().Text()),
		MetaDescription: metaContent(doc, "description"),
		H1:              collectText(doc.Find("h1"), maxH1Titles),
		H2:              collectText(doc.Find("h2"), maxH2Titles),
	}

	if kw := metaContent(doc, "keywords"); kw != "" {
		page.MetaKeywords = uniqueStrings(strings.Split(kw, ","))
	}

	page.BodyText = readableText(body, pageURL)
	if page.BodyText == "" {
		doc.Find("script, style, noscript").Remove()
		page.BodyText = strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	}

	return page, nil
}

func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")

	return strings.TrimSpace(content)
}

func readableText(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}

	return strings.Join(strings.Fields(article.TextContent), " ")
}

// HeadingKeywords tokenizes the title and every heading of the page.
func (p *Page) HeadingKeywords() []string {
	var out []string

	out = append(out, ExtractKeywords(p.Title, maxTextKeywords)...)

	for _, h := range p.H1 {
		out = append(out, ExtractKeywords(h, maxTextKeywords)...)
	}

	for _, h := range p.H2 {
		out = append(out, ExtractKeywords(h, maxTextKeywords)...)
	}

	return out
}
