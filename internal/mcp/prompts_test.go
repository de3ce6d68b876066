package mcp

import (
	"context"
	"testing"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchoolReviewPrompt(t *testing.T) {
	v := mustSchool(t, "Review Primary", "Karongi")

	result, err := testServer.handleSchoolReviewPrompt(context.Background(), mcplib.GetPromptRequest{
		Params: mcplib.GetPromptParams{
			Name:      "school-review",
			Arguments: map[string]string{"school_id": v.ID.String()},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.Description, "Review Primary")
	require.Len(t, result.Messages, 1)

	msg := result.Messages[0]
	assert.Equal(t, mcplib.RoleUser, msg.Role)
	tc, ok := msg.Content.(mcplib.TextContent)
	require.True(t, ok, "message content should be TextContent")
	assert.Contains(t, tc.Text, "manabi_school_maturity")
	assert.Contains(t, tc.Text, "manabi_school_readiness")
	assert.Contains(t, tc.Text, v.ID.String())
	assert.Contains(t, tc.Text, "Karongi district")
}

func TestSchoolReviewPrompt_BadArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]string
		wantErr string
	}{
		{"missing", map[string]string{}, "school_id argument is required"},
		{"malformed", map[string]string{"school_id": "abc"}, "not a valid UUID"},
		{"unknown", map[string]string{"school_id": uuid.New().String()}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testServer.handleSchoolReviewPrompt(context.Background(), mcplib.GetPromptRequest{
				Params: mcplib.GetPromptParams{Name: "school-review", Arguments: tt.args},
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScoringGuidePrompt(t *testing.T) {
	result, err := testServer.handleScoringGuidePrompt(context.Background(), mcplib.GetPromptRequest{})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	tc, ok := result.Messages[0].Content.(mcplib.TextContent)
	require.True(t, ok)
	for _, want := range []string{"87.5", "62.5", "37.5", "Latent", "Advanced", "manabi_compare"} {
		assert.Contains(t, tc.Text, want)
	}
}
