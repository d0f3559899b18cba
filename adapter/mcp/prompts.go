package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common nextup workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("pick_next_task").
		Description("Decide what to work on next using the recommendation engine and explain the choice.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Pick the next task",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me decide what to work on next. Please:

1. Call recommend.next to get the recommended task
2. Read the factors on the primary task and explain in one or two sentences why it was picked
3. Mention the alternatives briefly in case I want something different

If the recommendation is marked degraded, say that it is based on the quick estimate.

When I agree, record it with recommend.feedback and action "accepted".
If I decline, record action "skipped" so the task is left out for the rest of the session.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("review_task_pool").
		Description("Review the open task pool and flag overdue or unestimated work.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Task pool review",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Review my open tasks. Use recommend.analyze for the totals and
recommend.stats for what I skipped recently.

Tell me:
- how many tasks are overdue or due today
- whether the total estimate fits into the rest of my day
- which skipped tasks keep coming back and might need rescheduling`,
						},
					},
				},
			}, nil
		})

	return nil
}
