package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	gocache "github.com/patrickmn/go-cache"
	"github.com/username/cryptofolio/backend/src/config"
	"github.com/username/cryptofolio/backend/src/logger"
	"github.com/username/cryptofolio/backend/src/models"
)

const newsCacheKey = "news:aggregate"

// rss2jsonResponse mirrors the proxy's JSON envelope around an RSS feed.
type rss2jsonResponse struct {
	Status string `json:"status"`
	Feed   struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"feed"`
	Items []rss2jsonItem `json:"items"`
}

type rss2jsonItem struct {
	Title       string   `json:"title"`
	PubDate     string   `json:"pubDate"`
	Link        string   `json:"link"`
	Thumbnail   string   `json:"thumbnail"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
	Enclosure   struct {
		Link string `json:"link"`
	} `json:"enclosure"`
}

type newsService struct {
	proxyBaseURL string
	feeds        []string
	httpClient   *http.Client
	cache        *gocache.Cache
	sanitizer    *bluemonday.Policy
}

func NewNewsService() NewsService {
	ttl := config.Cfg.NewsCacheTTL
	return &newsService{
		proxyBaseURL: config.Cfg.NewsProxyBaseURL,
		feeds:        config.Cfg.NewsFeeds,
		httpClient:   &http.Client{Timeout: config.Cfg.ProviderTimeout},
		cache:        gocache.New(ttl, 2*ttl),
		sanitizer:    bluemonday.StrictPolicy(),
	}
}

// GetNews aggregates all configured feeds concurrently. A failing feed
// contributes nothing; the page renders from whichever feeds answered.
func (s *newsService) GetNews(ctx context.Context) ([]models.NewsItem, error) {
	if cached, found := s.cache.Get(newsCacheKey); found {
		return cached.([]models.NewsItem), nil
	}

	results := make([][]models.NewsItem, len(s.feeds))
	var wg sync.WaitGroup
	for i, feed := range s.feeds {
		wg.Add(1)
		go func(i int, feed string) {
			defer wg.Done()
			items, err := s.fetchFeed(ctx, feed)
			if err != nil {
				logger.L.Warn("News feed fetch failed", "feed", feed, "error", err)
				return
			}
			results[i] = items
		}(i, feed)
	}
	wg.Wait()

	merged := make([]models.NewsItem, 0, 64)
	for _, items := range results {
		merged = append(merged, items...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedOn > merged[j].PublishedOn
	})

	s.cache.Set(newsCacheKey, merged, gocache.DefaultExpiration)
	return merged, nil
}

func (s *newsService) fetchFeed(ctx context.Context, feedURL string) ([]models.NewsItem, error) {
	reqURL := s.proxyBaseURL + "?rss_url=" + url.QueryEscape(feedURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call news proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news proxy returned status %d", resp.StatusCode)
	}

	var decoded rss2jsonResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode news proxy response: %w", err)
	}
	if decoded.Status != "ok" {
		return nil, fmt.Errorf("news proxy reported status %q for feed", decoded.Status)
	}

	source := feedHostname(feedURL)
	items := make([]models.NewsItem, 0, len(decoded.Items))
	for _, raw := range decoded.Items {
		items = append(items, s.translateItem(raw, source))
	}
	return items, nil
}

func (s *newsService) translateItem(raw rss2jsonItem, source string) models.NewsItem {
	published := int64(0)
	// rss2json normalizes pubDate to this layout regardless of feed.
	if ts, err := time.Parse("2006-01-02 15:04:05", raw.PubDate); err == nil {
		published = ts.Unix()
	}

	image := raw.Thumbnail
	if image == "" {
		image = raw.Enclosure.Link
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(raw.Description))

	return models.NewsItem{
		ID:          newsItemID(raw.Link),
		Title:       strings.TrimSpace(s.sanitizer.Sanitize(raw.Title)),
		Body:        body,
		URL:         raw.Link,
		PublishedOn: published,
		ImageURL:    image,
		Source:      source,
		Categories:  strings.Join(raw.Categories, "|"),
	}
}

func newsItemID(link string) string {
	sum := sha1.Sum([]byte(link))
	return hex.EncodeToString(sum[:8])
}

func feedHostname(feedURL string) string {
	parsed, err := url.Parse(feedURL)
	if err != nil || parsed.Hostname() == "" {
		return feedURL
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
