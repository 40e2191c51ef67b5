/*
Package rotacloud reads users, shifts, attendance, leave and roles from the
RotaCloud REST API and serves them to the payroll engine.

PURPOSE:
  Client implements payroll.Source over HTTP. Every response body passes
  through a two-level cache before it is decoded by the factory package:

    RunCache   - memo + singleflight for one run (always on)
    RedisCache - shared across runs, per-endpoint TTL (optional)

ENDPOINTS:
  GET /users?limit=1                              connectivity check, never cached
  GET /users                                      TTL
  GET /shifts?start=&end=&published=true&users[]= TTL
  GET /attendance?start=&end=&users[]=            TTL
  GET /leave?start=&end=&include_*=&users[]=      TTL (dates as YYYY-MM-DD)
  GET /roles/{id}                                 RoleTTL

CACHE KEYS:
  Every key starts with CredentialScope(apiKey): bodies fetched with one
  key are never served to a run holding another.

ERRORS:
  Every failure is a *generic.UpstreamError naming the endpoint and, where
  relevant, the employee. The engine decides whether it is fatal.

SEE ALSO:
  - payroll/source.go: The interface implemented here
  - factory/schema.go: Body decoding
  - cache.go: Cache layers
*/
package rotacloud

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/warp/payroll-export/factory"
	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/metrics"
	"github.com/warp/payroll-export/payroll"
	"github.com/warp/payroll-export/timeoff"
)

const (
	DefaultBaseURL = "https://api.rotacloud.com/v1"
	DefaultTimeout = 30 * time.Second
	DefaultTTL     = 5 * time.Minute
	DefaultRoleTTL = 10 * time.Minute

	maxErrorBody = 512
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	TTL        time.Duration
	RoleTTL    time.Duration
	HTTPClient *http.Client
	Shared     Cache // optional cross-run layer, usually a *RedisCache
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Client is one run's view of the scheduling API. Build a new Client per
// run so the run-level memo starts empty.
type Client struct {
	baseURL string
	apiKey  string
	scope   string
	ttl     time.Duration
	roleTTL time.Duration
	http    *http.Client
	cache   *RunCache
	factory *factory.Factory
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClient validates cfg and applies defaults.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, fmt.Errorf("rotacloud: %w", generic.ErrMissingCredential)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.RoleTTL <= 0 {
		cfg.RoleTTL = DefaultRoleTTL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: base,
		apiKey:  key,
		scope:   CredentialScope(key),
		ttl:     cfg.TTL,
		roleTTL: cfg.RoleTTL,
		http:    hc,
		cache:   NewRunCache(cfg.Shared, cfg.Metrics),
		factory: factory.NewFactory(),
		metrics: cfg.Metrics,
		logger:  logger.With(slog.String("component", "rotacloud")),
	}, nil
}

// =============================================================================
// payroll.Source
// =============================================================================

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "users", 0, "/users", url.Values{"limit": {"1"}})
	return err
}

func (c *Client) Employees(ctx context.Context) ([]payroll.Employee, error) {
	body, err := c.get(ctx, "users", 0, "/users", url.Values{}, c.ttl)
	if err != nil {
		return nil, err
	}
	users, err := c.factory.ParseUsers(body)
	if err != nil {
		return nil, &generic.UpstreamError{Endpoint: "users", Err: err}
	}
	return users, nil
}

func (c *Client) Shifts(ctx context.Context, id payroll.EmployeeID, w payroll.Window) ([]payroll.RawShift, error) {
	q := url.Values{
		"start":     {strconv.FormatInt(w.Start, 10)},
		"end":       {strconv.FormatInt(w.End, 10)},
		"published": {"true"},
		"users[]":   {strconv.FormatInt(int64(id), 10)},
	}
	body, err := c.get(ctx, "shifts", int64(id), "/shifts", q, c.ttl)
	if err != nil {
		return nil, err
	}
	shifts, err := c.factory.ParseShifts(body)
	if err != nil {
		return nil, &generic.UpstreamError{Endpoint: "shifts", EmployeeID: int64(id), Err: err}
	}
	return shifts, nil
}

func (c *Client) Attendance(ctx context.Context, id payroll.EmployeeID, w payroll.Window) ([]payroll.AttendanceRecord, error) {
	q := url.Values{
		"start":   {strconv.FormatInt(w.Start, 10)},
		"end":     {strconv.FormatInt(w.End, 10)},
		"users[]": {strconv.FormatInt(int64(id), 10)},
	}
	body, err := c.get(ctx, "attendance", int64(id), "/attendance", q, c.ttl)
	if err != nil {
		return nil, err
	}
	records, err := c.factory.ParseAttendance(body)
	if err != nil {
		return nil, &generic.UpstreamError{Endpoint: "attendance", EmployeeID: int64(id), Err: err}
	}
	return records, nil
}

func (c *Client) Leave(ctx context.Context, id payroll.EmployeeID, p generic.Period) ([]timeoff.LeaveRecord, error) {
	q := url.Values{
		"start":             {p.Start.String()},
		"end":               {p.End.String()},
		"include_deleted":   {"false"},
		"include_denied":    {"false"},
		"include_requested": {"false"},
		"include_expired":   {"true"},
		"users[]":           {strconv.FormatInt(int64(id), 10)},
	}
	body, err := c.get(ctx, "leave", int64(id), "/leave", q, c.ttl)
	if err != nil {
		return nil, err
	}
	records, err := c.factory.ParseLeave(body)
	if err != nil {
		return nil, &generic.UpstreamError{Endpoint: "leave", EmployeeID: int64(id), Err: err}
	}
	return records, nil
}

// RoleName returns the role's name, or "" when the platform has none.
func (c *Client) RoleName(ctx context.Context, id payroll.RoleID) (string, error) {
	path := "/roles/" + strconv.FormatInt(int64(id), 10)
	body, err := c.get(ctx, "roles", 0, path, url.Values{}, c.roleTTL)
	if err != nil {
		return "", err
	}
	role, err := c.factory.ParseRole(body)
	if err != nil {
		return "", &generic.UpstreamError{Endpoint: "roles", Err: err}
	}
	return role.Name, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// CredentialScope is the cache namespace of an API key: the first 16 hex
// digits of its SHA-256.
func CredentialScope(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])[:16]
}

func (c *Client) get(ctx context.Context, endpoint string, employee int64, path string, q url.Values, ttl time.Duration) ([]byte, error) {
	key := c.scope + ":" + path
	if enc := q.Encode(); enc != "" {
		key += "?" + enc
	}
	return c.cache.Fetch(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, endpoint, employee, path, q)
	})
}

func (c *Client) do(ctx context.Context, endpoint string, employee int64, path string, q url.Values) ([]byte, error) {
	target := c.baseURL + path
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &generic.UpstreamError{Endpoint: endpoint, EmployeeID: employee, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(endpoint, "error", time.Since(start))
		return nil, &generic.UpstreamError{Endpoint: endpoint, EmployeeID: employee, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	c.logger.DebugContext(ctx, "upstream call",
		slog.String("endpoint", endpoint),
		slog.Int64("employee_id", employee),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &generic.UpstreamError{
			Endpoint:   endpoint,
			EmployeeID: employee,
			StatusCode: resp.StatusCode,
			Err:        errors.New(msg),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &generic.UpstreamError{Endpoint: endpoint, EmployeeID: employee, Err: err}
	}
	return body, nil
}

var _ payroll.Source = (*Client)(nil)
