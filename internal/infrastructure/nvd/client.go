package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bibbank/vulntriage/internal/domain/errs"
	"github.com/bibbank/vulntriage/internal/domain/model"
	"github.com/bibbank/vulntriage/internal/domain/port"
)

// Compile-time interface check.
var _ port.FeedClient = (*Client)(nil)

const (
	// DefaultBaseURL is the NVD CVE API 2.0 endpoint.
	DefaultBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

	// DefaultTimeout bounds a single feed request.
	DefaultTimeout = 30 * time.Second

	// timeLayout is the ISO 8601 form with milliseconds the API expects, always UTC.
	timeLayout = "2006-01-02T15:04:05.000"

	englishLang = "en"
)

// Client implements port.FeedClient against the NVD CVE API.
type Client struct {
	now     func() time.Time
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewClient creates a new NVD API client. A zero timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
		now:    time.Now,
	}
}

// cveResponse is the subset of the CVE API 2.0 response the pipeline reads.
type cveResponse struct {
	Vulnerabilities []struct {
		CVE nvdCVE `json:"cve"`
	} `json:"vulnerabilities"`
	ResultsPerPage int `json:"resultsPerPage"`
	TotalResults   int `json:"totalResults"`
}

type nvdCVE struct {
	ID           string `json:"id"`
	Published    string `json:"published"`
	Descriptions []struct {
		Lang  string `json:"lang"`
		Value string `json:"value"`
	} `json:"descriptions"`
}

// Fetch retrieves the records published in [now - DaysBack days, now], making a
// single request. Any transport, status or decoding failure is returned as
// errs.ErrUpstreamUnavailable and no partial result is produced.
func (c *Client) Fetch(ctx context.Context, query port.FeedQuery) (port.FeedPage, error) {
	if query.DaysBack < 1 {
		return port.FeedPage{}, errs.InvalidInput("days_back must be at least 1, got %d", query.DaysBack)
	}
	if query.MaxResults < 1 {
		return port.FeedPage{}, errs.InvalidInput("max_results must be at least 1, got %d", query.MaxResults)
	}

	ctx, span := otel.Tracer("vulntriage/nvd").Start(ctx, "nvd.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("nvd.days_back", query.DaysBack),
		attribute.Int("nvd.max_results", query.MaxResults),
	)

	end := c.now().UTC()
	start := end.AddDate(0, 0, -query.DaysBack)

	params := url.Values{}
	params.Set("pubStartDate", start.Format(timeLayout))
	params.Set("pubEndDate", end.Format(timeLayout))
	params.Set("resultsPerPage", strconv.Itoa(query.MaxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return port.FeedPage{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if query.APIKey != "" {
		req.Header.Set("apiKey", query.APIKey)
	}

	c.logger.Info("fetching records from NVD",
		"from", start.Format(time.DateOnly),
		"to", end.Format(time.DateOnly),
		"max_results", query.MaxResults,
	)

	page, err := c.do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("NVD fetch failed", "error", err)
		return port.FeedPage{}, err
	}

	span.SetAttributes(
		attribute.Int("nvd.returned", page.Returned),
		attribute.Int("nvd.records", len(page.Records)),
	)
	c.logger.Info("fetched records from NVD",
		"count", len(page.Records),
		"dropped", page.Returned-len(page.Records),
	)
	return page, nil
}

func (c *Client) do(req *http.Request) (port.FeedPage, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return port.FeedPage{}, errs.Upstream("NVD API request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return port.FeedPage{}, errs.Upstream("failed to read response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return port.FeedPage{}, errs.Upstream("NVD API error (status %d): %s", resp.StatusCode, truncate(string(body), 256))
	}

	var result cveResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return port.FeedPage{}, errs.Upstream("failed to parse response: %v", err)
	}

	page := port.FeedPage{
		Records:  make([]model.VulnerabilityRecord, 0, len(result.Vulnerabilities)),
		Returned: len(result.Vulnerabilities),
	}
	for _, item := range result.Vulnerabilities {
		record, ok := c.toRecord(item.CVE)
		if ok {
			page.Records = append(page.Records, record)
		}
	}
	return page, nil
}

// toRecord keeps the first English description. Items without one are dropped
// with a warning; items without an id are scored as model.UnknownID.
func (c *Client) toRecord(cve nvdCVE) (model.VulnerabilityRecord, bool) {
	if cve.ID == "" {
		cve.ID = model.UnknownID
	}

	var description string
	for _, d := range cve.Descriptions {
		if d.Lang == englishLang {
			description = d.Value
			break
		}
	}

	published, err := time.Parse(timeLayout, cve.Published)
	if err != nil {
		published = time.Time{}
	}

	record, err := model.NewVulnerabilityRecord(cve.ID, description, published)
	if err != nil {
		c.logger.Warn("dropping NVD item without usable English description", "cve_id", cve.ID, "error", err)
		return model.VulnerabilityRecord{}, false
	}
	return record, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
