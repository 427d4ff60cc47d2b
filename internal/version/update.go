package version

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/mod/semver"

	"github.com/khanglvm/vidrank/internal/logging"
)

const (
	RepoOwner = "khanglvm"
	RepoName  = "vidrank"

	// checkInterval is how long a successful check is cached.
	checkInterval = 24 * time.Hour
)

// ReleaseURL is the GitHub API endpoint for the latest release.
var ReleaseURL = "https://api.github.com/repos/" + RepoOwner + "/" + RepoName + "/releases/latest"

// Release is the subset of a GitHub release response we use.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Version returns the tag without a leading "v".
func (r Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// UpdateCache stores update check state.
type UpdateCache struct {
	LastUpdateCheck time.Time `json:"last_update_check"`
	Latest          Release   `json:"latest"`
}

// Checker looks up the latest release, at most once per checkInterval.
type Checker struct {
	URL       string
	CachePath string
	Client    *http.Client
	Current   string

	mu  sync.Mutex
	now func() time.Time
}

// NewChecker returns a checker for the running build with the cache at
// ~/.vidrank/update-cache.json.
func NewChecker() *Checker {
	cachePath := ""
	if home, err := os.UserHomeDir(); err == nil {
		cachePath = filepath.Join(home, ".vidrank", "update-cache.json")
	}
	return &Checker{
		URL:       ReleaseURL,
		CachePath: cachePath,
		Client:    &http.Client{Timeout: 10 * time.Second},
		Current:   Version,
		now:       time.Now,
	}
}

// Update describes the outcome of a check.
type Update struct {
	Current   string  `json:"current"`
	Latest    Release `json:"latest"`
	Available bool    `json:"available"`
	Cached    bool    `json:"cached"`
}

// Check returns the latest release. A cached result younger than
// checkInterval is reused unless force is set. Development builds never
// report an update.
func (c *Checker) Check(ctx context.Context, force bool) (Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now == nil {
		c.now = time.Now
	}

	cache := c.loadCache()
	if !force && cache != nil && cache.Latest.TagName != "" && c.now().Sub(cache.LastUpdateCheck) < checkInterval {
		return c.result(cache.Latest, true), nil
	}

	release, err := c.fetch(ctx)
	if err != nil {
		return Update{Current: c.Current}, err
	}

	if err := c.saveCache(&UpdateCache{LastUpdateCheck: c.now(), Latest: release}); err != nil {
		logging.Warn().Err(err).Str("path", c.CachePath).Msg("failed to save update cache")
	}
	return c.result(release, false), nil
}

func (c *Checker) result(latest Release, cached bool) Update {
	return Update{
		Current:   c.Current,
		Latest:    latest,
		Available: c.Current != "dev" && Newer(latest.Version(), c.Current),
		Cached:    cached,
	}
}

func (c *Checker) fetch(ctx context.Context) (Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return Release{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("failed to check for updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Release{}, fmt.Errorf("failed to read response: %w", err)
	}

	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return Release{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if release.TagName == "" {
		return Release{}, fmt.Errorf("release has no tag")
	}
	return release, nil
}

// loadCache returns nil when there is no usable cache.
func (c *Checker) loadCache() *UpdateCache {
	if c.CachePath == "" {
		return nil
	}
	data, err := os.ReadFile(c.CachePath)
	if err != nil {
		return nil
	}
	var cache UpdateCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil
	}
	return &cache
}

func (c *Checker) saveCache(cache *UpdateCache) error {
	if c.CachePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.CachePath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.CachePath, data, 0644)
}

// Newer reports whether release version a is greater than b under semver
// precedence. A leading "v" is optional and "1.2" means "1.2.0". An invalid
// a is never newer; any valid a is newer than an invalid b.
func Newer(a, b string) bool {
	return semver.Compare(canonical(a), canonical(b)) > 0
}

func canonical(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "v") {
		return s
	}
	return "v" + s
}
