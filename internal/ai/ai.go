package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client wraps the GenAI client.
type Client struct {
	genaiClient *genai.Client
	model       *genai.GenerativeModel
}

// NewClient creates a connected AI client.
func NewClient(ctx context.Context) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	return &Client{
		genaiClient: c,
		model:       c.GenerativeModel("gemini-1.5-flash"),
	}, nil
}

// Close terminates the connection.
func (c *Client) Close() {
	if c.genaiClient != nil {
		c.genaiClient.Close()
	}
}

// GenerateInsights turns a plain-text stats summary into a short narrative
// about the soil data: notable deficiencies, regional outliers, trends.
func (c *Client) GenerateInsights(ctx context.Context, statsSummary string) (string, error) {
	prompt := "You are an agronomy assistant. Given the following summary statistics of " +
		"Indian soil nutrient data (macro and micro nutrients by state), write 3-5 short, " +
		"plain-language insights. Mention notable deficiencies or outliers. Do not repeat " +
		"the raw numbers verbatim.\n\n" + statsSummary

	res, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("insight generation failed: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("AI returned no candidates")
	}

	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("AI returned empty response")
	}
	return b.String(), nil
}
