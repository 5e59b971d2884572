package links

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "serverstatus-links/1.0"
)

// maxBodyBytes caps the page size Fetch will parse.
var maxBodyBytes int64 = 10 << 20

// Scraper fetches a page and lists the targets of its hyperlinks.
type Scraper struct {
	client  *http.Client
	timeout time.Duration
}

// NewScraper builds a scraper whose requests are bounded by timeout.
func NewScraper(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Scraper{
		client:  &http.Client{Transport: transport, Timeout: timeout},
		timeout: timeout,
	}
}

// Fetch performs a single GET of pageURL and returns the href of every
// anchor that carries one, in document order. Links are neither resolved,
// deduplicated, nor followed.
func (s *Scraper) Fetch(ctx context.Context, pageURL string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: http %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}
	if int64(len(body)) > maxBodyBytes {
		return nil, fmt.Errorf("fetch %s: page exceeds %d bytes", pageURL, maxBodyBytes)
	}
	return Extract(bytes.NewReader(body))
}

// Extract tokenizes an HTML document and collects anchor hrefs.
func Extract(r io.Reader) ([]string, error) {
	var hrefs []string
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return hrefs, fmt.Errorf("parse html: %w", err)
			}
			return hrefs, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.A {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Namespace == "" && strings.EqualFold(attr.Key, "href") {
					hrefs = append(hrefs, attr.Val)
					break
				}
			}
		}
	}
}
