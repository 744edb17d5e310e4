// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/poiesic/pagewise/core"
	"golang.org/x/net/html"
)

const (
	fetchFailedPrefix = "Failed to fetch URL"

	// maxFetchBytes bounds a page or image body.
	maxFetchBytes = 20 << 20
)

// WebPage fetches a URL and emits exactly one page with its visible text,
// tables and images.
type WebPage struct {
	client    *http.Client
	userAgent string
}

var _ Extractor = (*WebPage)(nil)

// NewWebPage creates a web-page extractor. A nil client gets
// policy.FetchTimeout.
func NewWebPage(client *http.Client, policy Policy) *WebPage {
	policy = policy.Normalize()
	if client == nil {
		client = &http.Client{Timeout: policy.FetchTimeout}
	}
	return &WebPage{client: client, userAgent: policy.UserAgent}
}

func (x *WebPage) Family() string { return "URL" }

// Extract treats content as the URL to fetch. Any status other than 200
// fails the item. Script and style elements are dropped before the text
// is collected. Images are fetched one by one and an image that cannot be
// fetched is left out.
func (x *WebPage) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	pageURL, err := url.Parse(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, err
	}

	body, status, err := x.get(ctx, pageURL.String())
	if err != nil {
		return nil, core.Tag(core.ErrFetchFailure, err)
	}
	if status != http.StatusOK {
		return nil, core.Tag(core.ErrFetchFailure, fmt.Errorf("%s: %d", fetchFailedPrefix, status))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	page := core.Page{
		Number: 1,
		Text:   visibleText(doc.Selection),
		Tables: pageTables(doc),
		Media:  x.pageImages(ctx, doc, pageURL),
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page.SetMetadata("url", pageURL.String())
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		page.SetMetadata("title", title)
	}
	if md := mainMarkdown(doc); md != "" {
		page.SetMetadata("markdown", md)
	}
	return []core.Page{page}, nil
}

// get performs a GET and returns the body with the status code.
func (x *WebPage) get(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", x.userAgent)

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, resp.StatusCode, nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}
	if len(data) > maxFetchBytes {
		return nil, resp.StatusCode, fmt.Errorf("response exceeds %d bytes", maxFetchBytes)
	}
	return data, resp.StatusCode, nil
}

// visibleText joins the trimmed, non-empty text nodes with newlines.
func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

// pageTables returns one table per <table> with at least one non-empty row.
func pageTables(doc *goquery.Document) []core.Table {
	var tables []core.Table
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows [][]string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		if len(rows) > 0 {
			tables = append(tables, tableFromRows(rows))
		}
	})
	return tables
}

func (x *WebPage) pageImages(ctx context.Context, doc *goquery.Document, base *url.URL) []core.MediaAsset {
	var media []core.MediaAsset
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if ctx.Err() != nil {
			return false
		}
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			return true
		}
		ref, err := base.Parse(src)
		if err != nil || (ref.Scheme != "http" && ref.Scheme != "https") {
			return true
		}
		data, status, err := x.get(ctx, ref.String())
		if err != nil || status != http.StatusOK {
			return true
		}
		media = append(media, core.MediaAsset{
			Format: imageSuffix(ref),
			Data:   base64.StdEncoding.EncodeToString(data),
			Width:  numericAttr(img, "width"),
			Height: numericAttr(img, "height"),
		})
		return true
	})
	return media
}

func imageSuffix(ref *url.URL) string {
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(ref.Path)), "."); ext != "" {
		return ext
	}
	return "unknown"
}

// numericAttr parses attributes like width="120" or width="120px".
func numericAttr(sel *goquery.Selection, name string) int {
	value := strings.TrimSuffix(strings.TrimSpace(sel.AttrOr(name, "")), "px")
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// mainMarkdown renders the main content container as Markdown.
func mainMarkdown(doc *goquery.Document) string {
	for _, tag := range []string{"main", "article", "body"} {
		sel := doc.Find(tag).First()
		if sel.Length() == 0 {
			continue
		}
		fragment, err := goquery.OuterHtml(sel)
		if err != nil {
			return ""
		}
		md, err := htmltomarkdown.ConvertString(fragment)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(md)
	}
	return ""
}
