package snapshot

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/pagelens/pagelens/models"
)

// Precompiled matchers for the content summary. Compiling once keeps the
// extractor allocation-light when a capture runs it against both the
// desktop and the mobile DOM.
var (
	matchMetaDescription = cascadia.MustCompile(`meta[name="description"]`)
	matchLinks           = cascadia.MustCompile(`a[href]`)
	matchImages          = cascadia.MustCompile(`img[src]`)
	matchForms           = cascadia.MustCompile(`form`)
	matchButtons         = cascadia.MustCompile(`button, input[type="submit"], input[type="button"], [role="button"]`)
	matchNonContent      = cascadia.MustCompile(`script, style, noscript, template`)
)

// ctaKeywords drive the IsCTA heuristic on link text.
var ctaKeywords = []string{
	"sign up", "signup", "get started", "start", "buy", "order", "shop",
	"subscribe", "try", "download", "contact", "demo", "join", "register",
	"book", "learn more",
}

// maxListEntries caps each extracted list so a pathological page cannot
// blow up the snapshot.
const maxListEntries = 50

// ExtractDOM builds the structured content summary from rendered or raw
// HTML. Pure function over markup; no browser involvement.
func ExtractDOM(rawHTML string, maxTextBytes int) models.StructuredData {
	data := models.StructuredData{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		// Unparseable markup still yields an empty-but-valid summary.
		return data
	}

	data.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if desc, ok := doc.FindMatcher(matchMetaDescription).First().Attr("content"); ok {
		data.MetaDescription = strings.TrimSpace(desc)
	}

	data.H1 = headingTexts(doc, "h1")
	data.H2 = headingTexts(doc, "h2")
	data.H3 = headingTexts(doc, "h3")

	doc.FindMatcher(matchLinks).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxListEntries {
			return false
		}
		href, _ := s.Attr("href")
		text := collapseWhitespace(s.Text())
		data.Links = append(data.Links, models.PageLink{
			Text:  truncate(text, 120),
			Href:  href,
			IsCTA: isCTA(text),
		})
		return true
	})

	doc.FindMatcher(matchImages).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxListEntries {
			return false
		}
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		title, _ := s.Attr("title")
		data.Images = append(data.Images, models.PageImage{Src: src, Alt: alt, Title: title})
		return true
	})

	data.FormCount = doc.FindMatcher(matchForms).Length()

	doc.FindMatcher(matchButtons).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxListEntries {
			return false
		}
		label := collapseWhitespace(s.Text())
		if label == "" {
			label, _ = s.Attr("value")
		}
		if label == "" {
			label, _ = s.Attr("aria-label")
		}
		data.Buttons = append(data.Buttons, truncate(label, 80))
		return true
	})

	body := doc.Find("body")
	body.FindMatcher(matchNonContent).Remove()
	data.TextContent = truncate(collapseWhitespace(body.Text()), maxTextBytes)

	return data
}

func headingTexts(doc *goquery.Document, tag string) []string {
	var out []string
	doc.Find(tag).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxListEntries {
			return false
		}
		if t := collapseWhitespace(s.Text()); t != "" {
			out = append(out, truncate(t, 200))
		}
		return true
	})
	return out
}

func isCTA(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range ctaKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// collapseWhitespace folds runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most max bytes without splitting a rune.
// A non-positive budget yields the empty string; the cap always holds.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
