package gateway

import (
	"context"
	"fmt"

	gsc "google.golang.org/api/searchconsole/v1"

	"github.com/seoscope/searchconsole-mcp/searchconsole"
)

// defaultTopQueriesLimit caps top_queries rows when the caller names none.
const defaultTopQueriesLimit = 10

// listSitesArgs is intentionally empty; the schema reflector needs a named
// struct type to produce the empty object schema.
type listSitesArgs struct{}

type searchAnalyticsArgs struct {
	SiteURL    string   `json:"siteUrl" jsonschema:"description=Site URL or domain property (sc-domain:example.com)"`
	StartDate  string   `json:"startDate" jsonschema:"description=Start date in YYYY-MM-DD format"`
	EndDate    string   `json:"endDate" jsonschema:"description=End date in YYYY-MM-DD format"`
	Dimensions []string `json:"dimensions,omitempty" jsonschema:"description=Dimensions to group results by; defaults to date"`
	RowLimit   int64    `json:"rowLimit,omitempty" jsonschema:"description=Maximum number of rows to return"`

	DimensionFilterGroups []dimensionFilterGroup `json:"dimensionFilterGroups,omitempty" jsonschema:"description=Filter groups applied to the query"`
}

type dimensionFilterGroup struct {
	GroupType string            `json:"groupType,omitempty" jsonschema:"description=How filters combine; only 'and' is supported by the API"`
	Filters   []dimensionFilter `json:"filters" jsonschema:"description=Filters in this group"`
}

type dimensionFilter struct {
	Dimension  string `json:"dimension" jsonschema:"description=Dimension to filter on (query/page/country/device/searchAppearance)"`
	Operator   string `json:"operator" jsonschema:"description=Comparison operator (equals/contains/notContains/includingRegex/excludingRegex)"`
	Expression string `json:"expression" jsonschema:"description=Value or pattern to compare against"`
}

type inspectURLArgs struct {
	SiteURL       string `json:"siteUrl" jsonschema:"description=Property the URL belongs to"`
	InspectionURL string `json:"inspectionUrl" jsonschema:"description=Fully qualified URL to inspect"`
}

type listSitemapsArgs struct {
	SiteURL string `json:"siteUrl" jsonschema:"description=Property to list sitemaps for"`
}

type submitSitemapArgs struct {
	SiteURL  string `json:"siteUrl" jsonschema:"description=Property the sitemap belongs to"`
	FeedPath string `json:"feedpath" jsonschema:"description=Full URL of the sitemap to submit"`
}

type topQueriesArgs struct {
	SiteURL   string `json:"siteUrl" jsonschema:"description=Site URL or domain property"`
	StartDate string `json:"startDate" jsonschema:"description=Start date in YYYY-MM-DD format"`
	EndDate   string `json:"endDate" jsonschema:"description=End date in YYYY-MM-DD format"`
	Limit     int64  `json:"limit,omitempty" jsonschema:"description=Number of queries to return; defaults to 10"`
}

// submitSitemapResult is the success payload for submit_sitemap. The API call
// itself returns nothing.
type submitSitemapResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// catalogTools defines the fixed tool catalog. Order here is the order
// advertised by tools/list.
func catalogTools() []tool {
	return []tool{
		newTool("list_sites", "List the Search Console properties the authorized account can access.",
			func(ctx context.Context, ops searchconsole.Operations, _ listSitesArgs) (any, error) {
				return ops.ListSites(ctx)
			}),

		newTool("search_analytics", "Query search analytics data for a property over a date range.",
			func(ctx context.Context, ops searchconsole.Operations, args searchAnalyticsArgs) (any, error) {
				dims := args.Dimensions
				if len(dims) == 0 {
					dims = []string{"date"}
				}
				return ops.Query(ctx, searchconsole.QueryRequest{
					SiteURL:               args.SiteURL,
					StartDate:             args.StartDate,
					EndDate:               args.EndDate,
					Dimensions:            dims,
					RowLimit:              args.RowLimit,
					DimensionFilterGroups: toAPIFilterGroups(args.DimensionFilterGroups),
				})
			}),

		newTool("inspect_url", "Inspect a URL's index status within a property.",
			func(ctx context.Context, ops searchconsole.Operations, args inspectURLArgs) (any, error) {
				return ops.InspectURL(ctx, args.SiteURL, args.InspectionURL)
			}),

		newTool("list_sitemaps", "List the sitemaps submitted for a property.",
			func(ctx context.Context, ops searchconsole.Operations, args listSitemapsArgs) (any, error) {
				return ops.ListSitemaps(ctx, args.SiteURL)
			}),

		newTool("submit_sitemap", "Submit a sitemap URL for a property.",
			func(ctx context.Context, ops searchconsole.Operations, args submitSitemapArgs) (any, error) {
				if err := ops.SubmitSitemap(ctx, args.SiteURL, args.FeedPath); err != nil {
					return nil, err
				}
				return submitSitemapResult{
					Success: true,
					Message: fmt.Sprintf("Sitemap %s submitted for %s", args.FeedPath, args.SiteURL),
				}, nil
			}),

		newTool("top_queries", "Return the top search queries for a property over a date range.",
			func(ctx context.Context, ops searchconsole.Operations, args topQueriesArgs) (any, error) {
				limit := args.Limit
				if limit <= 0 {
					limit = defaultTopQueriesLimit
				}
				return ops.TopQueries(ctx, args.SiteURL, args.StartDate, args.EndDate, limit)
			}),
	}
}

func toAPIFilterGroups(groups []dimensionFilterGroup) []*gsc.ApiDimensionFilterGroup {
	if len(groups) == 0 {
		return nil
	}
	out := make([]*gsc.ApiDimensionFilterGroup, 0, len(groups))
	for _, g := range groups {
		ag := &gsc.ApiDimensionFilterGroup{GroupType: g.GroupType}
		for _, f := range g.Filters {
			ag.Filters = append(ag.Filters, &gsc.ApiDimensionFilter{
				Dimension:  f.Dimension,
				Operator:   f.Operator,
				Expression: f.Expression,
			})
		}
		out = append(out, ag)
	}
	return out
}
