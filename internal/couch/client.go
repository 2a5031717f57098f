package couch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/vk/couchdesk/internal/ctxlog"
)

// ErrNotFound signals that no document with the requested id (or revision)
// exists in the database. Callers decide whether that is a failure; the
// synchronizer treats it as the create path.
var ErrNotFound = errors.New("document not found")

// Config holds the connection settings for one database.
type Config struct {
	// URL is the server base URL, e.g. "http://localhost:5984".
	URL      string
	Database string
	Username string
	Password string
	Timeout  time.Duration
}

// Client talks to a single CouchDB database over HTTP.
type Client struct {
	http *resty.Client
	db   string
}

// NewClient builds a client for the database described by cfg.
func NewClient(cfg Config) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	if cfg.Username != "" {
		httpClient.SetBasicAuth(cfg.Username, cfg.Password)
	}
	return &Client{http: httpClient, db: cfg.Database}
}

// Close releases the underlying transport resources.
func (c *Client) Close() error {
	return c.http.Close()
}

// Get fetches the document with the given id, or ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*DesignDocument, error) {
	return c.get(ctx, id, "")
}

// GetRev fetches a specific revision of the document with the given id.
func (c *Client) GetRev(ctx context.Context, id, rev string) (*DesignDocument, error) {
	if rev == "" {
		return nil, fmt.Errorf("rev may not be empty")
	}
	return c.get(ctx, id, rev)
}

func (c *Client) get(ctx context.Context, id, rev string) (*DesignDocument, error) {
	if id == "" {
		return nil, fmt.Errorf("id may not be empty")
	}
	ctxlog.FromContext(ctx).Debug("Fetching document from store.", "id", id, "rev", rev)

	var doc DesignDocument
	req := c.http.R().
		SetContext(ctx).
		SetResult(&doc)
	if rev != "" {
		req.SetQueryParam("rev", rev)
	}

	res, err := req.Get(c.docPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", id, err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if res.IsError() {
		return nil, fmt.Errorf("failed to fetch %s: status %s: %s", id, res.Status(), res.String())
	}
	return &doc, nil
}

// Put stores the document under its id. CouchDB uses the same verb for
// create and update; an update carries the current revision in the body.
func (c *Client) Put(ctx context.Context, doc *DesignDocument) (*Response, error) {
	if doc == nil {
		return nil, fmt.Errorf("document may not be nil")
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("document id may not be empty")
	}
	ctxlog.FromContext(ctx).Debug("Storing document.", "id", doc.ID, "rev", doc.Rev)

	var out Response
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(doc).
		SetResult(&out).
		Put(c.docPath(doc.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", doc.ID, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("failed to store %s: status %s: %s", doc.ID, res.Status(), res.String())
	}
	return &out, nil
}

func (c *Client) docPath(id string) string {
	return "/" + url.PathEscape(c.db) + "/" + escapeDocID(id)
}

// escapeDocID escapes a document id for use as a URL path element. The
// slash separating the _design/ prefix from the name is kept literal; the
// name itself is escaped.
func escapeDocID(id string) string {
	if name, ok := strings.CutPrefix(id, DesignPrefix); ok {
		return DesignPrefix + url.PathEscape(name)
	}
	return url.PathEscape(id)
}
