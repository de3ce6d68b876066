package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/service/schools"
	"github.com/ashita-ai/manabi/internal/storage"
)

func (s *Server) registerTools() {
	// manabi_school_maturity — full maturity breakdown for one school.
	s.mcpServer.AddTool(
		mcplib.NewTool("manabi_school_maturity",
			mcplib.WithDescription(`Get the ICT policy maturity of one school.

WHEN TO USE: When you need to explain why a school sits at its stage, or
which policy themes hold it back.

WHAT YOU GET BACK:
- overall_score (0-100), overall_stage and readiness_level
- every policy theme with its score, stage and sub-scores
- cross-cutting indicators and data_completeness
- weakest_themes and a one-line summary`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("school_id",
				mcplib.Description("School UUID"),
				mcplib.Required(),
			),
		),
		s.handleSchoolMaturity,
	)

	// manabi_school_readiness — report-only readiness for one school.
	s.mcpServer.AddTool(
		mcplib.NewTool("manabi_school_readiness",
			mcplib.WithDescription(`Get the report-only ICT readiness of one school, scored from its latest
field report alone (devices, connectivity, usage, software, trained staff).

This is a different scale from manabi_school_maturity. Use it to judge what
field officers actually observed, independent of the declared profile.
Set include_trend=true to get the readiness of every report, oldest first.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("school_id",
				mcplib.Description("School UUID"),
				mcplib.Required(),
			),
			mcplib.WithBoolean("include_trend",
				mcplib.Description("Also return per-report readiness over time"),
				mcplib.DefaultBool(false),
			),
		),
		s.handleSchoolReadiness,
	)

	// manabi_summary — dashboard statistics across all schools.
	s.mcpServer.AddTool(
		mcplib.NewTool("manabi_summary",
			mcplib.WithDescription(`Get summary statistics across every monitored school: totals, internet
coverage, average computers per school, the top five schools by maturity and
distributions by district and environment.

Good first call to understand the overall picture.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
		),
		s.handleSummary,
	)

	// manabi_compare — side-by-side maturity for several schools.
	s.mcpServer.AddTool(
		mcplib.NewTool("manabi_compare",
			mcplib.WithDescription(fmt.Sprintf(`Compare the maturity of %d to %d schools side by side. Returns each
school's compact maturity and, per policy theme, the school that leads it.`, schools.MinCompare, schools.MaxCompare)),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("school_ids",
				mcplib.Description("Comma-separated school UUIDs"),
				mcplib.Required(),
			),
		),
		s.handleCompare,
	)

	// manabi_similar_schools — nearest theme profiles.
	s.mcpServer.AddTool(
		mcplib.NewTool("manabi_similar_schools",
			mcplib.WithDescription(`Find schools whose policy theme profile is closest to a given school.

WHEN TO USE: To find peer schools for benchmarking or to pair a school with
others facing the same gaps.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("school_id",
				mcplib.Description("School UUID"),
				mcplib.Required(),
			),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum results to return"),
				mcplib.Min(1),
				mcplib.Max(50),
				mcplib.DefaultNumber(5),
			),
		),
		s.handleSimilar,
	)
}

func (s *Server) handleSchoolMaturity(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, res := requireSchoolID(request)
	if res != nil {
		return res, nil
	}
	v, err := s.svc.GetSchool(ctx, id)
	if err != nil {
		return s.toolError("get maturity", err), nil
	}
	return jsonResult(compactMaturity(v)), nil
}

func (s *Server) handleSchoolReadiness(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, res := requireSchoolID(request)
	if res != nil {
		return res, nil
	}
	rd, err := s.svc.Readiness(ctx, id)
	if err != nil {
		return s.toolError("get readiness", err), nil
	}
	if !request.GetBool("include_trend", false) {
		return jsonResult(rd), nil
	}
	trend, err := s.svc.Trend(ctx, id)
	if err != nil {
		return s.toolError("get trend", err), nil
	}
	return jsonResult(map[string]any{
		"readiness": rd,
		"trend":     trend,
	}), nil
}

func (s *Server) handleSummary(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	stats, err := s.svc.Summary(ctx)
	if err != nil {
		return s.toolError("summary", err), nil
	}
	return jsonResult(stats), nil
}

func (s *Server) handleCompare(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	raw := request.GetString("school_ids", "")
	if strings.TrimSpace(raw) == "" {
		return errorResult("school_ids is required"), nil
	}
	var ids []uuid.UUID
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid school id %q", p)), nil
		}
		ids = append(ids, id)
	}

	cmp, err := s.svc.Compare(ctx, ids)
	if err != nil {
		return s.toolError("compare", err), nil
	}
	views := make([]map[string]any, len(cmp.Schools))
	for i, v := range cmp.Schools {
		views[i] = compactView(v)
	}
	return jsonResult(map[string]any{
		"schools": views,
		"leaders": cmp.Leaders,
	}), nil
}

func (s *Server) handleSimilar(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, res := requireSchoolID(request)
	if res != nil {
		return res, nil
	}
	limit := request.GetInt("limit", 5)
	similar, err := s.svc.Similar(ctx, id, limit)
	if err != nil {
		return s.toolError("similar schools", err), nil
	}
	out := make([]map[string]any, len(similar))
	for i, sim := range similar {
		out[i] = compactSimilar(sim)
	}
	return jsonResult(map[string]any{
		"results": out,
		"total":   len(out),
	}), nil
}

func requireSchoolID(request mcplib.CallToolRequest) (uuid.UUID, *mcplib.CallToolResult) {
	raw := request.GetString("school_id", "")
	if raw == "" {
		return uuid.Nil, errorResult("school_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errorResult(fmt.Sprintf("invalid school_id %q", raw))
	}
	return id, nil
}

// toolError turns a service error into a tool-level error result. Unexpected
// errors are logged; callers see only a generic message for them.
func (s *Server) toolError(op string, err error) *mcplib.CallToolResult {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return errorResult("school not found")
	case errors.Is(err, schools.ErrValidation):
		return errorResult(err.Error())
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return errorResult(verr.Error())
	}
	s.logger.Error("mcp: tool failed", "op", op, "error", err)
	return errorResult(op + " failed")
}
