package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const (
	summaryURI         = "manabi://summary"
	schoolURIPrefix    = "manabi://school/"
	maturityURISuffix  = "/maturity"
	maturityURIPattern = schoolURIPrefix + "{id}" + maturityURISuffix
)

func (s *Server) registerResources() {
	// manabi://summary — dashboard statistics across all schools.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			summaryURI,
			"Schools Summary",
			mcplib.WithResourceDescription("Totals, internet coverage, top schools and distributions across all monitored schools"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleSummaryResource,
	)

	// manabi://school/{id}/maturity — one school's computed maturity.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			maturityURIPattern,
			"School Maturity",
			mcplib.WithTemplateDescription("Policy maturity of a specific school, computed at read time"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleSchoolMaturityResource,
	)
}

func (s *Server) handleSummaryResource(ctx context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	stats, err := s.svc.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: summary: %w", err)
	}
	return jsonContents(summaryURI, stats)
}

func (s *Server) handleSchoolMaturityResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	id, err := parseSchoolMaturityURI(uri)
	if err != nil {
		return nil, err
	}
	v, err := s.svc.GetSchool(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mcp: school maturity: %w", err)
	}
	return jsonContents(uri, compactMaturity(v))
}

// parseSchoolMaturityURI extracts the school ID from
// manabi://school/{id}/maturity.
func parseSchoolMaturityURI(uri string) (uuid.UUID, error) {
	rest, ok := strings.CutPrefix(uri, schoolURIPrefix)
	if !ok {
		return uuid.Nil, fmt.Errorf("mcp: invalid school maturity URI: %s", uri)
	}
	raw, ok := strings.CutSuffix(rest, maturityURISuffix)
	if !ok {
		return uuid.Nil, fmt.Errorf("mcp: invalid school maturity URI: %s", uri)
	}
	if raw == "" {
		return uuid.Nil, fmt.Errorf("mcp: empty school id in URI: %s", uri)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("mcp: invalid school id %q in URI", raw)
	}
	return id, nil
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
