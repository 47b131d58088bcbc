// Package cache keeps successful Spotify GET responses in SQL for a fixed
// time so repeated dashboard renders do not hit the API.
package cache

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mager/harmonyhub/config"
)

const DefaultTTL = time.Hour

type Cache struct {
	db  *sql.DB
	ttl time.Duration
	log *zap.SugaredLogger
	now func() time.Time

	enabled bool
}

func New(db *sql.DB, log *zap.SugaredLogger, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{db: db, ttl: ttl, log: log, now: time.Now, enabled: true}
}

func ProvideCache(cfg config.Config, log *zap.SugaredLogger, db *sql.DB) *Cache {
	c := New(db, log, cfg.CacheTTL)
	c.enabled = cfg.CacheEnabled
	return c
}

var Options = ProvideCache

// Transport wraps next. A disabled cache returns next unchanged.
func (c *Cache) Transport(next http.RoundTripper) http.RoundTripper {
	if c == nil || !c.enabled {
		return next
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{cache: c, next: next}
}

type entry struct {
	status      int
	contentType string
	body        []byte
}

func (c *Cache) get(ctx context.Context, url string) (*entry, bool) {
	var (
		e    entry
		body string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT status, content_type, body FROM http_cache WHERE url = $1 AND expires_at > $2`,
		url, c.now().Unix(),
	).Scan(&e.status, &e.contentType, &body)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.log.Warnw("cache read failed", "url", url, "error", err)
		}
		return nil, false
	}
	e.body = []byte(body)
	return &e, true
}

func (c *Cache) put(ctx context.Context, url string, e entry) {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO http_cache (url, status, content_type, body, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO UPDATE SET
			status = excluded.status,
			content_type = excluded.content_type,
			body = excluded.body,
			expires_at = excluded.expires_at`,
		url, e.status, e.contentType, string(e.body), c.now().Add(c.ttl).Unix())
	if err != nil {
		c.log.Warnw("cache write failed", "url", url, "error", err)
	}
}

// Prune deletes expired entries and returns how many were removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM http_cache WHERE expires_at <= $1`, c.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// livePaths are never cached: they describe what the user is doing now.
var livePaths = []string{"/me/player"}

func isLive(path string) bool {
	for _, p := range livePaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

type transport struct {
	cache *Cache
	next  http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || isLive(req.URL.Path) {
		return t.next.RoundTrip(req)
	}

	key := req.URL.String()
	if e, ok := t.cache.get(req.Context(), key); ok {
		return e.response(req), nil
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	t.cache.put(req.Context(), key, entry{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	})
	return resp, nil
}

func (e *entry) response(req *http.Request) *http.Response {
	header := make(http.Header)
	if e.contentType != "" {
		header.Set("Content-Type", e.contentType)
	}
	header.Set("X-Cache", "HIT")
	return &http.Response{
		Status:        http.StatusText(e.status),
		StatusCode:    e.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.body)),
		ContentLength: int64(len(e.body)),
		Request:       req,
	}
}
