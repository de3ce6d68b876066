package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	// school-review — walks the agent through reviewing one school's maturity.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("school-review",
			mcplib.WithPromptDescription("Review one school's ICT policy maturity and recommend next steps"),
			mcplib.WithArgument("school_id",
				mcplib.ArgumentDescription("UUID of the school to review"),
				mcplib.RequiredArgument(),
			),
		),
		s.handleSchoolReviewPrompt,
	)

	// scoring-guide — explains the maturity and readiness scales.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("scoring-guide",
			mcplib.WithPromptDescription("How manabi scores policy maturity and ICT readiness"),
		),
		s.handleScoringGuidePrompt,
	)
}

func (s *Server) handleSchoolReviewPrompt(ctx context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	raw := request.Params.Arguments["school_id"]
	if raw == "" {
		return nil, fmt.Errorf("school_id argument is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("school_id argument is not a valid UUID: %s", raw)
	}
	v, err := s.svc.GetSchool(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mcp: school review: %w", err)
	}

	weak := weakestThemes(v.PolicyMaturity, 3)
	lines := make([]string, len(weak))
	for i, t := range weak {
		lines[i] = fmt.Sprintf("- %s: %d (%s)", t.Name, t.Score, t.Stage)
	}

	return &mcplib.GetPromptResult{
		Description: fmt.Sprintf("Review the ICT policy maturity of %s", v.Name),
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Review the ICT policy maturity of %s (%s district).

%s

Weakest policy themes:
%s

1. CALL manabi_school_maturity with school_id="%s" for the full breakdown.
2. CALL manabi_school_readiness with school_id="%s" and include_trend=true to
   see what field reports observed and whether it is improving.
3. CALL manabi_similar_schools with school_id="%s" to find peers at a
   similar stage.
4. RECOMMEND two or three concrete actions that would move the weakest themes
   to the next stage. Tie each action to a specific sub-score.`,
						v.Name, v.District, maturitySummary(v), strings.Join(lines, "\n"), id, id, id),
				},
			},
		},
	}, nil
}

func (s *Server) handleScoringGuidePrompt(_ context.Context, _ mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	return &mcplib.GetPromptResult{
		Description: "manabi scoring scales",
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: `manabi uses two separate scales. Never mix them.

## Policy maturity (full profile)

Eight policy themes are each scored 0-100 from the school profile and its
latest field report: vision & planning, ICT infrastructure, teachers, skills &
competencies, learning resources, EMIS, monitoring & evaluation, and equity,
inclusion & safety. The overall score is the rounded mean of the eight.

Stages:
- Advanced: 87.5 and above
- Established: 62.5 and above
- Emerging: 37.5 and above
- Latent: below 37.5

Readiness on this scale: High at 70 and above, Medium at 40 and above, else Low.

A school with no recorded data still scores 27 overall; absent sections fall
to the lowest branch of every rule, never to an error.

## Report-only readiness

Scored from the latest field report alone, out of 100: infrastructure (40:
devices, connectivity, power), usage (25), software (15) and capacity (20:
trained teachers, support staff). High at 70 and above, Medium at 40.
Use it to judge what was observed on the ground.

## Tools

- manabi_school_maturity: one school's full breakdown
- manabi_school_readiness: report-only readiness, optionally with trend
- manabi_summary: overview across all schools
- manabi_compare: two to five schools side by side
- manabi_similar_schools: peers with the nearest theme profile`,
				},
			},
		},
	}, nil
}
