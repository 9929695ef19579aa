// Package enrich looks up recent activity on discussion threads: Reddit
// threads through their RSS feed, other pages through readability extraction.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/redranks/internal/logger"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultExcerptLen = 160
	userAgent         = "redranks-cli/1.0 (thread enrichment)"
	maxPageBytes      = 4 << 20
)

// Activity is what could be learned about a thread without the API.
type Activity struct {
	URL      string
	Comments int
	LatestAt time.Time
	Excerpt  string
}

// Summary is a one-line description used in reports.
func (a Activity) Summary() string {
	var parts []string
	if a.Comments > 0 {
		parts = append(parts, fmt.Sprintf("%d recent comments", a.Comments))
	}
	if !a.LatestAt.IsZero() {
		parts = append(parts, "latest "+a.LatestAt.Format("2006-01-02"))
	}
	s := strings.Join(parts, ", ")
	if a.Excerpt != "" {
		if s != "" {
			s += ": "
		}
		s += fmt.Sprintf("%q", a.Excerpt)
	}
	return s
}

// Enricher fetches thread activity over HTTP.
type Enricher struct {
	client     *http.Client
	excerptLen int
}

// New creates an Enricher. A nil client gets a default one with timeout.
func New(client *http.Client, timeout time.Duration) *Enricher {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	return &Enricher{client: client, excerptLen: defaultExcerptLen}
}

// Thread returns the activity of one thread URL.
func (e *Enricher) Thread(ctx context.Context, threadURL string) (*Activity, error) {
	u, err := url.Parse(threadURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid thread URL %q", threadURL)
	}
	if isRedditThread(u) {
		return e.redditThread(ctx, u)
	}
	return e.page(ctx, u)
}

// Threads enriches URLs one after another. A host that answers with an HTTP
// error is not retried for the remaining URLs. Failures are logged and left
// out of the result.
func (e *Enricher) Threads(ctx context.Context, urls []string) map[string]Activity {
	out := make(map[string]Activity, len(urls))
	failedHosts := make(map[string]struct{})

	for _, raw := range urls {
		if ctx.Err() != nil {
			break
		}
		host := ""
		if u, err := url.Parse(raw); err == nil {
			host = strings.ToLower(u.Host)
		}
		if _, failed := failedHosts[host]; failed {
			continue
		}

		a, err := e.Thread(ctx, raw)
		if err != nil {
			if isHTTPError(err) && host != "" {
				failedHosts[host] = struct{}{}
				logger.Log.Warnf("HTTP error for %s, skipping remaining threads from %s", raw, host)
			} else {
				logger.Log.Warnf("Enrichment failed for %s: %v", raw, err)
			}
			continue
		}
		out[raw] = *a
	}
	return out
}

func (e *Enricher) redditThread(ctx context.Context, u *url.URL) (*Activity, error) {
	body, err := e.get(ctx, feedURL(u), "application/rss+xml, application/atom+xml")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing thread feed: %w", err)
	}

	a := &Activity{URL: u.String()}
	// The first entry of a thread feed is the submission itself.
	for i, item := range feed.Items {
		if t := itemTime(item); t.After(a.LatestAt) {
			a.LatestAt = t
		}
		if i == 0 {
			continue
		}
		a.Comments++
		if a.Excerpt == "" {
			text := item.Content
			if text == "" {
				text = item.Description
			}
			a.Excerpt = truncate(stripHTML(text), e.excerptLen)
		}
	}
	return a, nil
}

func (e *Enricher) page(ctx context.Context, u *url.URL) (*Activity, error) {
	body, err := e.get(ctx, u.String(), "text/html")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	article, err := readability.FromReader(io.LimitReader(body, maxPageBytes), u)
	if err != nil {
		return nil, fmt.Errorf("extracting content: %w", err)
	}

	a := &Activity{URL: u.String()}
	excerpt := strings.TrimSpace(article.Excerpt)
	if excerpt == "" {
		excerpt = strings.TrimSpace(article.TextContent)
	}
	a.Excerpt = truncate(strings.Join(strings.Fields(excerpt), " "), e.excerptLen)
	return a, nil
}

func (e *Enricher) get(ctx context.Context, target, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, &httpError{code: resp.StatusCode}
	}
	return resp.Body, nil
}

// isRedditThread matches /r/<subreddit>/comments/<id>/... paths.
func isRedditThread(u *url.URL) bool {
	return strings.HasPrefix(u.Path, "/r/") && strings.Contains(u.Path, "/comments/")
}

// feedURL turns a thread permalink into its RSS feed URL.
func feedURL(u *url.URL) string {
	f := *u
	f.RawQuery = ""
	f.Fragment = ""
	if !strings.HasSuffix(f.Path, "/") {
		f.Path += "/"
	}
	f.Path += ".rss"
	return f.String()
}

func itemTime(item *gofeed.Item) time.Time {
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	return time.Time{}
}

func stripHTML(text string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return strings.Join(strings.Fields(text), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

// isHTTPError reports whether err, possibly wrapped, is an HTTP error status.
func isHTTPError(err error) bool {
	var httpErr *httpError
	return errors.As(err, &httpErr)
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}
