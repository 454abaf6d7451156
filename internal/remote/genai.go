package remote

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hpungsan/healthyfy/internal/errors"
)

const DefaultGenAIModel = "gemini-2.0-flash"

const systemInstruction = Disclaimer + " Keep replies short and practical. " +
	"For red-flag symptoms such as chest pain or shortness of breath, tell the user to contact a medical professional."

// GenAIClient answers directly with Gemini.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient builds a Gemini client. apiKey is required.
func NewGenAIClient(ctx context.Context, apiKey, model string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultGenAIModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIClient{client: client, model: model}, nil
}

// prompt prefixes the message with the user context the model may use.
func prompt(req ChatRequest) string {
	var b strings.Builder
	if uc := req.UserContext; uc.Route != "" || uc.DisplayName != nil {
		b.WriteString("Context:")
		if uc.DisplayName != nil {
			fmt.Fprintf(&b, " user %s;", *uc.DisplayName)
		}
		if uc.Route != "" {
			fmt.Fprintf(&b, " viewing %s;", uc.Route)
		}
		b.WriteString("\n\n")
	}
	b.WriteString(req.Message)
	return b.String()
}

func (c *GenAIClient) SendChat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is empty")
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt(req), genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		},
	)
	if err != nil {
		return nil, errors.NewUpstream("gemini", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("model returned no text")
	}
	return &ChatReply{Reply: text, Domain: "general"}, nil
}
