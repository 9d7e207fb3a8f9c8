package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

var ErrAnalyticsNotConfigured = errors.New("analíticas no configuradas")

// knownCities maps city names Umami reports without a country.
var knownCities = map[string]string{
	"Santiago del Estero":         "AR",
	"Santiago del Estero Capital": "AR",
	"La Banda":                    "AR",
	"Buenos Aires":                "AR",
	"CABA":                        "AR",
	"Cordoba":                     "AR",
	"Córdoba":                     "AR",
	"Rosario":                     "AR",
	"Mendoza":                     "AR",
	"San Miguel de Tucuman":       "AR",
	"Tucumán":                     "AR",
}

type Metric struct {
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

type Location struct {
	Code    string `json:"code"`
	Country string `json:"country,omitempty"`
	Count   int    `json:"count"`
}

type AnalyticsStats struct {
	Pageviews Metric     `json:"pageviews"`
	Visitors  Metric     `json:"visitors"`
	Visits    Metric     `json:"visits"`
	Locations []Location `json:"locations"`
	TotalTime Metric     `json:"totalTime"` // average seconds per visit
}

// UmamiClient reads website statistics. The login token is cached for ttl.
type UmamiClient struct {
	baseURL   string
	username  string
	password  string
	websiteID string
	ttl       time.Duration
	http      *http.Client
	now       func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewUmamiClient(baseURL, username, password, websiteID string, ttl time.Duration) *UmamiClient {
	return &UmamiClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		username:  username,
		password:  password,
		websiteID: websiteID,
		ttl:       ttl,
		http:      &http.Client{Timeout: 15 * time.Second},
		now:       time.Now,
	}
}

func (u *UmamiClient) Configured() bool {
	return u != nil && u.baseURL != "" && u.username != "" && u.websiteID != ""
}

// Token returns the cached bearer token, logging in when it is missing or
// expired. The token is read from the JSON body (token or user.token) or,
// failing that, from the umami.auth cookie.
func (u *UmamiClient) Token(ctx context.Context) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.token != "" && u.now().Before(u.tokenExpiry) {
		return u.token, nil
	}

	body, _ := json.Marshal(map[string]string{"username": u.username, "password": u.password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/api/auth/login", strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("umami login error %d: %s", resp.StatusCode, string(raw))
	}

	var data struct {
		Token string `json:"token"`
		User  struct {
			Token string `json:"token"`
		} `json:"user"`
	}
	_ = json.Unmarshal(raw, &data)

	token := data.Token
	if token == "" {
		token = data.User.Token
	}
	if token == "" {
		for _, c := range resp.Cookies() {
			if c.Name == "umami.auth" {
				token = c.Value
			}
		}
	}
	if token == "" {
		return "", errors.New("umami login: token not found in response")
	}

	u.token = token
	u.tokenExpiry = u.now().Add(u.ttl)
	return token, nil
}

func (u *UmamiClient) get(ctx context.Context, token, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("umami error %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Stats fetches the last 30 days of stats and the top five cities
// concurrently. A failed city request leaves Locations empty.
func (u *UmamiClient) Stats(ctx context.Context) (*AnalyticsStats, error) {
	if !u.Configured() {
		return nil, ErrAnalyticsNotConfigured
	}
	token, err := u.Token(ctx)
	if err != nil {
		return nil, err
	}

	end := u.now()
	start := end.Add(-30 * 24 * time.Hour)
	base := url.Values{}
	base.Set("startAt", strconv.FormatInt(start.UnixMilli(), 10))
	base.Set("endAt", strconv.FormatInt(end.UnixMilli(), 10))
	site := "/api/websites/" + url.PathEscape(u.websiteID)

	var (
		raw    map[string]any
		cities []map[string]any
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return u.get(gctx, token, site+"/stats", base, &raw)
	})
	g.Go(func() error {
		q := url.Values{}
		for k, v := range base {
			q[k] = v
		}
		q.Set("type", "city")
		q.Set("limit", "5")
		if err := u.get(gctx, token, site+"/metrics", q, &cities); err != nil {
			cities = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	visits := statValue(raw, "visits")
	totalTime := statValue(raw, "totalTime", "totaltime", "total_time")
	avg := 0.0
	if visits > 0 {
		avg = math.Round(totalTime / visits)
	}

	stats := &AnalyticsStats{
		Pageviews: Metric{Value: statValue(raw, "pageviews")},
		Visitors:  Metric{Value: statValue(raw, "visitors")},
		Visits:    Metric{Value: visits},
		TotalTime: Metric{Value: avg},
		Locations: []Location{},
	}
	for _, c := range cities {
		name, _ := c["x"].(string)
		country, _ := c["country"].(string)
		if country == "" {
			country = knownCities[name]
		}
		if country == "" {
			country = knownCities[strings.TrimSpace(strings.Split(name, ",")[0])]
		}
		count, _ := c["y"].(float64)
		stats.Locations = append(stats.Locations, Location{Code: name, Country: country, Count: int(math.Round(count))})
	}
	return stats, nil
}

// statValue reads the first present key as either {value: n} or a plain number.
func statValue(raw map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case float64:
			return v
		case map[string]any:
			if n, ok := v["value"].(float64); ok {
				return n
			}
		}
	}
	return 0
}
