package starred

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/brizzai/starfetch/internal/auth/constants"
	"github.com/brizzai/starfetch/internal/config"
	"github.com/brizzai/starfetch/internal/logger"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	starredPath = "/user/starred"
	apiVersion  = "2022-11-28"
	userAgent   = "starfetch"

	// maxPageBytes bounds a single page body
	maxPageBytes = 16 << 20
)

var (
	// ErrUnexpectedStatus is returned for any non-2xx page response
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrMalformedPage is returned when a page body is not a JSON array
	ErrMalformedPage = errors.New("page is not a JSON array")
	// ErrTooManyPages is returned when the listing exceeds the configured page limit
	ErrTooManyPages = errors.New("too many pages")
)

// Client lists the starred repositories of the token's owner.
type Client struct {
	client   *http.Client
	apiURL   string
	perPage  int
	maxPages int
}

// NewClient creates a Client from the github config block. A nil httpClient
// gets one with cfg.Timeout.
func NewClient(cfg *config.GitHubConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > config.MaxPerPage {
		perPage = config.MaxPerPage
	}
	return &Client{
		client:   httpClient,
		apiURL:   cfg.APIURL,
		perPage:  perPage,
		maxPages: cfg.MaxPages,
	}
}

// PerPage returns the page size requested from the API
func (c *Client) PerPage() int {
	return c.perPage
}

// ListStarred fetches every page in order and concatenates the records.
// Pages are requested one after another; the first failure aborts the listing.
func (c *Client) ListStarred(ctx context.Context, auth AuthManager) ([]Record, error) {
	var all []Record
	for number := 1; ; number++ {
		if c.maxPages > 0 && number > c.maxPages {
			return nil, fmt.Errorf("%w: listing exceeds %d pages", ErrTooManyPages, c.maxPages)
		}

		page, err := c.FetchPage(ctx, auth, number)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)

		if page.IsLast(c.perPage) {
			logger.Debug("Starred listing complete",
				zap.Int("pages", number),
				zap.Int("records", len(all)),
			)
			return all, nil
		}
	}
}

// FetchPage requests a single page (1-based) of the starred listing.
func (c *Client) FetchPage(ctx context.Context, auth AuthManager, number int) (*Page, error) {
	req, err := c.buildRequest(ctx, auth, number)
	if err != nil {
		return nil, err
	}

	resp, err := c.execute(req)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", number, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(resp.Body, "message").String()
		return nil, fmt.Errorf("page %d: %w %d: %s", number, ErrUnexpectedStatus, resp.StatusCode, msg)
	}

	records, err := splitArray(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", number, err)
	}

	link := resp.Headers.Get("Link")
	page := &Page{
		Number:     number,
		Records:    records,
		LinkHeader: link != "",
		HasNext:    hasNextLink(link),
	}
	logger.Debug("Fetched starred page",
		zap.Int("page", number),
		zap.Int("records", len(records)),
		zap.Bool("has_next_link", page.HasNext),
	)
	return page, nil
}

func (c *Client) buildRequest(ctx context.Context, auth AuthManager, number int) (*http.Request, error) {
	u, err := url.Parse(c.apiURL + starredPath)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	q := u.Query()
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", constants.GitHubMediaType)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)

	if err := auth.ApplyAuth(req); err != nil {
		return nil, fmt.Errorf("failed to apply authentication: %w", err)
	}
	return req, nil
}

// execute performs the actual HTTP request execution
func (c *Client) execute(req *http.Request) (*Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}

// splitArray turns a JSON array body into its raw elements, in order.
func splitArray(body []byte) ([]Record, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedPage
	}
	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, ErrMalformedPage
	}

	records := []Record{}
	result.ForEach(func(_, value gjson.Result) bool {
		records = append(records, Record(value.Raw))
		return true
	})
	return records, nil
}
