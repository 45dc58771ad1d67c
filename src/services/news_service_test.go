package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/microcosm-cc/bluemonday"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNewsService(proxyURL string, feeds []string) *newsService {
	return &newsService{
		proxyBaseURL: proxyURL,
		feeds:        feeds,
		httpClient:   &http.Client{Timeout: 2 * time.Second},
		cache:        gocache.New(time.Minute, time.Minute),
		sanitizer:    bluemonday.StrictPolicy(),
	}
}

func TestGetNewsAggregatesAndSanitizes(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rssURL := r.URL.Query().Get("rss_url")

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(rssURL, "feed-a"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "ok",
				"items": []map[string]interface{}{
					{
						"title":       "<b>Older</b> story",
						"pubDate":     "2024-06-01 08:00:00",
						"link":        "https://feed-a.example/older",
						"description": "<p>Body with <script>alert(1)</script>markup</p>",
						"categories":  []string{"bitcoin", "markets"},
					},
				},
			})
		case strings.Contains(rssURL, "feed-b"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "ok",
				"items": []map[string]interface{}{
					{
						"title":     "Newer story",
						"pubDate":   "2024-06-02 08:00:00",
						"link":      "https://feed-b.example/newer",
						"thumbnail": "https://feed-b.example/img.png",
					},
				},
			})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer proxy.Close()

	svc := newTestNewsService(proxy.URL, []string{
		"https://www.feed-a.example/rss",
		"https://feed-b.example/rss",
		"https://broken.example/rss",
	})

	items, err := svc.GetNews(context.Background())
	require.NoError(t, err)
	// The broken feed contributes nothing.
	require.Len(t, items, 2)

	// Newest first.
	assert.Equal(t, "Newer story", items[0].Title)
	assert.Equal(t, "feed-b.example", items[0].Source)
	assert.Equal(t, "https://feed-b.example/img.png", items[0].ImageURL)
	assert.Greater(t, items[0].PublishedOn, items[1].PublishedOn)

	// HTML is stripped from title and body.
	assert.Equal(t, "Older story", items[1].Title)
	assert.NotContains(t, items[1].Body, "<")
	assert.Contains(t, items[1].Body, "Body with")
	assert.Equal(t, "feed-a.example", items[1].Source)
	assert.Equal(t, "bitcoin|markets", items[1].Categories)
	assert.NotEmpty(t, items[1].ID)
}

func TestGetNewsServesFromCache(t *testing.T) {
	calls := 0
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"items": []map[string]interface{}{
				{"title": "Story", "pubDate": "2024-06-01 08:00:00", "link": "https://a.example/1"},
			},
		})
	}))
	defer proxy.Close()

	svc := newTestNewsService(proxy.URL, []string{"https://a.example/rss"})

	first, err := svc.GetNews(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, calls)

	proxy.Close()
	second, err := svc.GetNews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestGetNewsAllFeedsFailing(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer proxy.Close()

	svc := newTestNewsService(proxy.URL, []string{"https://a.example/rss", "https://b.example/rss"})

	items, err := svc.GetNews(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}
