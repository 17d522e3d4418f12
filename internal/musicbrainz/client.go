package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	baseURL      = "https://musicbrainz.org/ws/2"
	userAgent    = "mbpseudo/0.1 (https://github.com/llehouerou/mbpseudo)"
	rateLimitDur = time.Second // MusicBrainz requires 1 request per second

	// Retry configuration
	maxRetries   = 3
	initialDelay = 2 * time.Second
	maxDelay     = 30 * time.Second

	// Release lookups include everything needed to build a candidate and
	// to find its pseudo-releases.
	releaseIncludes = "recordings+artist-credits+labels+release-groups+release-rels"
)

// ErrNotFound is returned when MusicBrainz has no entity with the given ID.
var ErrNotFound = errors.New("musicbrainz: not found")

// Client provides access to the MusicBrainz API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	lastRequest time.Time
	mu          sync.Mutex
}

// NewClient creates a new MusicBrainz API client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

// SearchReleases searches releases by artist and album title. Either may be
// empty, but not both.
func (c *Client) SearchReleases(ctx context.Context, artist, album string, limit int) ([]Release, error) {
	query := buildReleaseQuery(artist, album)
	if query == "" {
		return nil, errors.New("empty search query")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("limit", strconv.Itoa(max(limit, 1)))

	body, err := c.get(ctx, "release", params)
	if err != nil {
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return convertReleases(result.Releases), nil
}

// GetReleaseRaw fetches the full JSON document of a release, including its
// tracks and release relationships.
func (c *Client) GetReleaseRaw(ctx context.Context, mbid string) ([]byte, error) {
	if mbid == "" {
		return nil, errors.New("empty release id")
	}

	params := url.Values{}
	params.Set("fmt", "json")
	params.Set("inc", releaseIncludes)

	return c.get(ctx, "release/"+url.PathEscape(mbid), params)
}

// buildReleaseQuery builds a Lucene query from artist and album.
func buildReleaseQuery(artist, album string) string {
	var parts []string
	if album = strings.TrimSpace(album); album != "" {
		parts = append(parts, `release:"`+escapeLucene(album)+`"`)
	}
	if artist = strings.TrimSpace(artist); artist != "" {
		parts = append(parts, `artist:"`+escapeLucene(artist)+`"`)
	}
	return strings.Join(parts, " AND ")
}

// escapeLucene escapes characters that would end a quoted Lucene phrase.
func escapeLucene(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// get performs a rate-limited GET on path and returns the response body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	c.waitForRateLimit()

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// waitForRateLimit ensures we don't exceed MusicBrainz rate limits.
func (c *Client) waitForRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < rateLimitDur {
		time.Sleep(rateLimitDur - elapsed)
	}
	c.lastRequest = time.Now()
}

// doRequestWithRetry executes an HTTP request with exponential backoff retry.
// Retries on 5xx errors and network errors.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	var lastErr error
	delay := initialDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(req.Context(), delay); err != nil {
				return nil, err
			}
			delay = min(delay*2, maxDelay)
			c.waitForRateLimit() // Re-apply rate limit after retry delay
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}
			lastErr = err
			continue
		}

		// Success or client error (4xx) - don't retry
		if resp.StatusCode < 500 {
			return resp, nil
		}

		// Server error (5xx) - retry
		resp.Body.Close()
		lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries+1, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// convertReleases converts raw search results to Release structs, keeping
// the relevance order of the API.
func convertReleases(results []releaseResult) []Release {
	releases := make([]Release, 0, len(results))

	for i := range results {
		r := &results[i]
		release := Release{
			ID:      r.ID,
			Title:   r.Title,
			Artist:  extractArtist(r.ArtistCredit),
			Date:    r.Date,
			Country: r.Country,
			Score:   r.Score,
			Status:  r.Status,
		}

		if r.ReleaseGroup != nil {
			release.ReleaseType = r.ReleaseGroup.PrimaryType
		}

		var formats []string
		for _, m := range r.Media {
			release.TrackCount += m.TrackCount
			if m.Format != "" {
				formats = append(formats, m.Format)
			}
		}
		release.Formats = strings.Join(formats, ", ")

		releases = append(releases, release)
	}

	return releases
}

// extractArtist extracts the artist name from artist credits.
func extractArtist(credits []artistCredit) string {
	if len(credits) == 0 {
		return ""
	}

	parts := make([]string, 0, len(credits))
	for _, c := range credits {
		name := c.Name
		if name == "" {
			name = c.Artist.Name
		}
		parts = append(parts, name+c.JoinPhrase)
	}
	return strings.Join(parts, "")
}

// extractYear returns the year of a date string (YYYY-MM-DD or YYYY), or 0.
func extractYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
