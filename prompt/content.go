package prompt

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum extracted text length for the
// readability result to be trusted. Below it we assume the algorithm
// missed the main content and use the snapshot's trimmed text instead.
const minContentLength = 50

// newMarkdownConverter builds the reusable, goroutine-safe converter that
// renders the page's main content into the prompt. The base plugin strips
// script/style/head noise; commonmark renders standard Markdown.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
}

// mainContentMarkdown extracts the page's main content with readability
// and renders it as Markdown, bounded to maxBytes. Returns "" when nothing
// trustworthy could be extracted; the caller falls back to plain text.
func (c *Compiler) mainContentMarkdown(rawHTML, sourceURL string, maxBytes int) string {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil || len(strings.TrimSpace(article.TextContent)) < minContentLength {
		return ""
	}

	md, err := c.mdConverter.ConvertString(article.Content, converter.WithDomain(parsedURL.Host))
	if err != nil {
		slog.Debug("markdown conversion failed, using plain text content",
			"url", sourceURL, "error", err)
		return ""
	}

	md = strings.TrimSpace(md)
	if len(md) > maxBytes {
		md = md[:maxBytes]
		if i := strings.LastIndexByte(md, '\n'); i > 0 {
			md = md[:i]
		}
	}
	return md
}
