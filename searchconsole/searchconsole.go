// Package searchconsole wraps the Google Search Console API behind a small
// operation set bound to a single credential. Every call is a direct
// forwarding call: no caching, no retry, no pagination.
package searchconsole

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	gsc "google.golang.org/api/searchconsole/v1"
)

// QueryRequest carries the parameters of a search analytics query.
type QueryRequest struct {
	SiteURL               string
	StartDate             string
	EndDate               string
	Dimensions            []string
	RowLimit              int64
	DimensionFilterGroups []*gsc.ApiDimensionFilterGroup
}

// Operations is the set of Search Console calls exposed as tools.
// Implementations must be safe for concurrent use.
type Operations interface {
	ListSites(ctx context.Context) ([]*gsc.WmxSite, error)
	Query(ctx context.Context, req QueryRequest) ([]*gsc.ApiDataRow, error)
	InspectURL(ctx context.Context, siteURL, inspectionURL string) (*gsc.UrlInspectionResult, error)
	ListSitemaps(ctx context.Context, siteURL string) ([]*gsc.WmxSitemap, error)
	SubmitSitemap(ctx context.Context, siteURL, feedPath string) error
	TopQueries(ctx context.Context, siteURL, startDate, endDate string, limit int64) ([]*gsc.ApiDataRow, error)
}

// Factory builds an operation set from an authorized token source. Injected
// so tests can substitute a stub without touching the Google client.
type Factory func(ctx context.Context, ts oauth2.TokenSource) (Operations, error)

var _ Operations = (*Client)(nil)

// Client is the concrete Operations implementation backed by the
// searchconsole/v1 service.
type Client struct {
	svc *gsc.Service
}

// NewClient constructs a Client bound to the given token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := gsc.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to construct searchconsole service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewOperations is a Factory producing the real client.
func NewOperations(ctx context.Context, ts oauth2.TokenSource) (Operations, error) {
	return NewClient(ctx, ts)
}

// ListSites returns the properties visible to the credential. An empty
// account yields an empty, non-nil slice.
func (c *Client) ListSites(ctx context.Context) ([]*gsc.WmxSite, error) {
	res, err := c.svc.Sites.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sites.list: %w", err)
	}
	if res.SiteEntry == nil {
		return []*gsc.WmxSite{}, nil
	}
	return res.SiteEntry, nil
}

// Query runs a search analytics query and returns its rows.
func (c *Client) Query(ctx context.Context, req QueryRequest) ([]*gsc.ApiDataRow, error) {
	q := &gsc.SearchAnalyticsQueryRequest{
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
		Dimensions:            req.Dimensions,
		RowLimit:              req.RowLimit,
		DimensionFilterGroups: req.DimensionFilterGroups,
	}
	res, err := c.svc.Searchanalytics.Query(req.SiteURL, q).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("searchanalytics.query: %w", err)
	}
	if res.Rows == nil {
		return []*gsc.ApiDataRow{}, nil
	}
	return res.Rows, nil
}

// InspectURL fetches the index inspection result for one URL of a property.
func (c *Client) InspectURL(ctx context.Context, siteURL, inspectionURL string) (*gsc.UrlInspectionResult, error) {
	req := &gsc.InspectUrlIndexRequest{
		SiteUrl:       siteURL,
		InspectionUrl: inspectionURL,
	}
	res, err := c.svc.UrlInspection.Index.Inspect(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("urlinspection.inspect: %w", err)
	}
	return res.InspectionResult, nil
}

// ListSitemaps returns the sitemaps submitted for a property.
func (c *Client) ListSitemaps(ctx context.Context, siteURL string) ([]*gsc.WmxSitemap, error) {
	res, err := c.svc.Sitemaps.List(siteURL).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sitemaps.list: %w", err)
	}
	if res.Sitemap == nil {
		return []*gsc.WmxSitemap{}, nil
	}
	return res.Sitemap, nil
}

// SubmitSitemap notifies Google about a sitemap path for a property.
func (c *Client) SubmitSitemap(ctx context.Context, siteURL, feedPath string) error {
	if err := c.svc.Sitemaps.Submit(siteURL, feedPath).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sitemaps.submit: %w", err)
	}
	return nil
}

// TopQueries is a convenience query dimensioned by query string and limited
// to the requested number of rows.
func (c *Client) TopQueries(ctx context.Context, siteURL, startDate, endDate string, limit int64) ([]*gsc.ApiDataRow, error) {
	return c.Query(ctx, QueryRequest{
		SiteURL:    siteURL,
		StartDate:  startDate,
		EndDate:    endDate,
		Dimensions: []string{"query"},
		RowLimit:   limit,
	})
}
