package factorsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TrustTier ranks how much a search hit's source domain is trusted
type TrustTier int

const (
	TrustLow TrustTier = iota
	TrustMedium
	TrustHigh
)

func (t TrustTier) String() string {
	switch t {
	case TrustHigh:
		return "high"
	case TrustMedium:
		return "medium"
	default:
		return "low"
	}
}

// Result is one parsed emission-factor candidate from a search hit
type Result struct {
	Value     decimal.Decimal `json:"value"`
	Unit      string          `json:"unit"`
	SourceURL string          `json:"source_url"`
	Trust     TrustTier       `json:"trust"`
	Snippet   string          `json:"snippet"`
}

// factorPattern matches "<number> kg CO2e per <unit>" phrasings in search
// snippets, tolerating CO2e/CO2-e/CO2eq spellings and "/" for "per".
var factorPattern = regexp.MustCompile(`(?i)([\d]+(?:[.,]\d+)?)\s*kg\s*CO2[-\s]?e(?:q)?\s*(?:per|/)\s*([a-zA-Z][\w³]*)`)

// highTrustDomains are authoritative emission-factor publishers
var highTrustDomains = []string{
	".gov", ".go.jp", ".go.kr", ".go.th", "europa.eu",
	"ipcc.ch", "ghgprotocol.org",
}

// searchResponse is the minimal slice of the search API response we consume
type searchResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// fallbackFactors is the small built-in table returned when the search
// service is disabled, rate limited or failing.
var fallbackFactors = map[string]decimal.Decimal{
	"kwh":   decimal.NewFromFloat(0.42),
	"liter": decimal.NewFromFloat(2.5),
	"kg":    decimal.NewFromFloat(0.5),
	"km":    decimal.NewFromFloat(0.12),
}

// Client is a rate-limited web-search-backed factor lookup, used only when
// no internal factor exists. It degrades to the built-in table rather than
// failing.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewClient creates a search client limited to requestsPerMinute
func NewClient(endpoint, apiKey string, requestsPerMinute int, timeout time.Duration, logger *zap.Logger) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 10
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
		logger:   logger,
	}
}

// Search looks up emission-factor candidates for an activity type and unit,
// best trust tier first. Any failure returns the built-in fallback instead.
func (c *Client) Search(ctx context.Context, activityType, unit string) []Result {
	if c.endpoint == "" {
		return c.fallback(activityType, unit)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Warn("factor search rate limit wait aborted", zap.Error(err))
		return c.fallback(activityType, unit)
	}

	query := fmt.Sprintf("%s emission factor kg CO2e per %s", activityType, unit)
	results, err := c.query(ctx, query)
	if err != nil {
		c.logger.Warn("factor search failed, using built-in table",
			zap.String("activity_type", activityType),
			zap.String("unit", unit),
			zap.Error(err))
		return c.fallback(activityType, unit)
	}
	if len(results) == 0 {
		return c.fallback(activityType, unit)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Trust > results[j].Trust
	})
	return results
}

func (c *Client) query(ctx context.Context, query string) ([]Result, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search service returned %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var results []Result
	for _, hit := range body.Results {
		if parsed, ok := ParseSnippet(hit.Snippet); ok {
			parsed.SourceURL = hit.URL
			parsed.Trust = ClassifySource(hit.URL)
			results = append(results, parsed)
		}
	}
	return results, nil
}

// ParseSnippet extracts the first "<number> kg CO2e per <unit>" match
func ParseSnippet(snippet string) (Result, bool) {
	m := factorPattern.FindStringSubmatch(snippet)
	if m == nil {
		return Result{}, false
	}

	value, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
	if err != nil {
		return Result{}, false
	}

	return Result{
		Value:   value,
		Unit:    strings.ToLower(m[2]),
		Snippet: strings.TrimSpace(snippet),
	}, true
}

// ClassifySource ranks a source URL: government/IPCC/GHG-Protocol domains
// are high trust, .org and .edu medium, everything else low.
func ClassifySource(rawURL string) TrustTier {
	u, err := url.Parse(rawURL)
	if err != nil {
		return TrustLow
	}
	host := strings.ToLower(u.Hostname())

	for _, domain := range highTrustDomains {
		if strings.HasSuffix(host, domain) || host == strings.TrimPrefix(domain, ".") {
			return TrustHigh
		}
	}
	if strings.HasSuffix(host, ".org") || strings.HasSuffix(host, ".edu") {
		return TrustMedium
	}
	return TrustLow
}

func (c *Client) fallback(activityType, unit string) []Result {
	value, ok := fallbackFactors[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return nil
	}
	return []Result{{
		Value:   value,
		Unit:    strings.ToLower(unit),
		Trust:   TrustLow,
		Snippet: "built-in fallback factor",
	}}
}
