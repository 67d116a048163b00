package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockModel scores sentiment via an AWS Bedrock hosted model. It is an
// optional ensemble member; when the invocation fails, the ensemble
// continues with the remaining models.
type BedrockModel struct {
	client  *bedrockruntime.Client
	modelID string
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

const sentimentSystemPrompt = `You are a sentiment scoring service. ` +
	`Reply with a single JSON object {"score": <-1..1>, "confidence": <0..1>} and nothing else.`

// NewBedrockModel creates a Bedrock-backed sentiment model in the given region.
func NewBedrockModel(ctx context.Context, modelID, region string) (*BedrockModel, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &BedrockModel{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}, nil
}

// Name identifies the model in ensemble sub-scores.
func (m *BedrockModel) Name() string { return "bedrock" }

// Score invokes the hosted model with temperature 0 so repeated calls on the
// same text return the same score.
func (m *BedrockModel) Score(ctx context.Context, text string) (float64, float64, error) {
	req := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        100,
		System:           sentimentSystemPrompt,
		Messages: []bedrockMessage{
			{Role: "user", Content: []bedrockContentBlock{{Type: "text", Text: text}}},
		},
		Temperature: 0,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, 0, fmt.Errorf("marshal bedrock request: %w", err)
	}

	out, err := m.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(m.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("invoke bedrock model: %w", err)
	}

	var resp bedrockResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return 0, 0, fmt.Errorf("unmarshal bedrock response: %w", err)
	}
	if len(resp.Content) == 0 {
		return 0, 0, fmt.Errorf("empty bedrock response")
	}

	var verdict struct {
		Score      float64 `json:"score"`
		Confidence float64 `json:"confidence"`
	}
	payload := strings.TrimSpace(resp.Content[0].Text)
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		return 0, 0, fmt.Errorf("parse model verdict: %w", err)
	}

	return clamp(verdict.Score, -1, 1), clamp(verdict.Confidence, 0, 1), nil
}
