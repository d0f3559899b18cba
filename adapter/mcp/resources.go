package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers MCP resources that expose recommendation data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App
	if app == nil {
		return fmt.Errorf("app is required")
	}

	srv.Resource("nextup://recommendation/next").
		Name("Next Task").
		Description("Authoritative recommendation for the current user").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			rec, err := nextTool(ctx, app, userInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, rec)
		})

	srv.Resource("nextup://recommendation/analysis").
		Name("Task Analysis").
		Description("Summary of the current user's open task pool").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			analysis, err := analyzeTool(ctx, app, userInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, analysis)
		})

	srv.Resource("nextup://recommendation/stats").
		Name("Recommendation Stats").
		Description("Cache, session and feedback statistics").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			stats, err := statsTool(ctx, app, statsInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, stats)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
