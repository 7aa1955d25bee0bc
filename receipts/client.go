package receipts

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

	models "github.com/phillip/donation-portal-go/models"
)

const (
	PageSize           = 6
	DefaultMaxAttempts = 3
)

// StatusError is a non-2xx answer from the receipts API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("receipts api returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("receipts api returned %d", e.Code)
}

func (e *StatusError) retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Client fetches receipt pages from the donation API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	token       string
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff replaces the wait before a retry. attempt is the 1-based number of the
// attempt that just failed.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(c *Client) { c.backoff = fn }
}

// LinearBackoff waits one second per failed attempt.
func LinearBackoff(attempt int) time.Duration {
	return time.Duration(attempt) * time.Second
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		maxAttempts: DefaultMaxAttempts,
		backoff:     LinearBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage requests one page of a donor's receipts, retrying transient failures.
func (c *Client) FetchPage(ctx context.Context, phone string, page int) (*models.ReceiptPage, error) {
	if page < 1 {
		page = 1
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result, err := c.fetchOnce(ctx, phone, page)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
		if ctx.Err() != nil || attempt == c.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}

	return nil, fmt.Errorf("fetch receipts page %d: %w", page, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, phone string, page int) (*models.ReceiptPage, error) {
	q := url.Values{}
	q.Set("phone", phone)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/receipts?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &body)
		return nil, &StatusError{Code: resp.StatusCode, Message: body.Error}
	}

	var result models.ReceiptPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode receipts page: %w", err)
	}
	if result.Receipts == nil {
		result.Receipts = []models.Receipt{}
	}
	return &result, nil
}

// Browser is the donor receipt view: one loaded page plus its load state.
type Browser struct {
	client *Client
	phone  string

	mu         sync.RWMutex
	loading    bool
	page       int
	receipts   []models.Receipt
	totalPages int
	totals     models.ReceiptTotals
	err        error
}

func NewBrowser(client *Client, phone string) *Browser {
	return &Browser{client: client, phone: phone}
}

// Load fetches page and replaces the view state. On failure the previous page is kept
// and Err reports the terminal error.
func (b *Browser) Load(ctx context.Context, page int) error {
	b.mu.Lock()
	b.loading = true
	b.err = nil
	b.mu.Unlock()

	result, err := b.client.FetchPage(ctx, b.phone, page)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	if err != nil {
		b.err = err
		return err
	}
	b.page = result.Pagination.CurrentPage
	if b.page == 0 {
		b.page = page
	}
	b.receipts = result.Receipts
	b.totalPages = result.Pagination.TotalPages
	b.totals = result.Totals
	return nil
}

// Visible returns the loaded page narrowed by tab and criteria.
func (b *Browser) Visible(tab Tab, c Criteria) []models.Receipt {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Apply(b.receipts, tab, c)
}

func (b *Browser) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

func (b *Browser) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

func (b *Browser) Page() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.page
}

func (b *Browser) TotalPages() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.totalPages
}

func (b *Browser) Totals() models.ReceiptTotals {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.totals
}
