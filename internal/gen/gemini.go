package gen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/JaimeStill/inkwell/internal/config"
	"github.com/JaimeStill/inkwell/pkg/formatting"
)

// safetyCategories are the harm categories configured on every call.
var safetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// Client implements Generator and Reviewer on the Gemini API.
type Client struct {
	client      *genai.Client
	imageModel  string
	reviewModel string
	safety      []*genai.SafetySetting
	logger      *slog.Logger
}

// NewClient creates a Gemini client from the given configuration.
func NewClient(ctx context.Context, cfg *config.GeminiConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	threshold := genai.HarmBlockThreshold(cfg.SafetyThreshold)
	safety := make([]*genai.SafetySetting, 0, len(safetyCategories))
	for _, category := range safetyCategories {
		safety = append(safety, &genai.SafetySetting{
			Category:  category,
			Threshold: threshold,
		})
	}

	return &Client{
		client:      client,
		imageModel:  cfg.ImageModel,
		reviewModel: cfg.ReviewModel,
		safety:      safety,
		logger:      logger.With("system", "gemini"),
	}, nil
}

// Generate performs one image generation call. A response without an
// inline image counts as ErrNoImage so the caller can consume a retry
// without invoking review.
func (c *Client) Generate(ctx context.Context, req Request) (*Artifact, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		SafetySettings:     c.safety,
	}
	if req.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.imageModel, contents(req.Prompt, req.Attachments), cfg)
	if err != nil {
		return nil, classify(err)
	}

	artifact := extractArtifact(resp)
	if artifact == nil {
		return nil, ErrNoImage
	}

	c.logger.Info(
		"image generated",
		"model", c.imageModel,
		"size", formatting.FormatBytes(int64(len(artifact.Data)), 1),
	)

	return artifact, nil
}

// Review performs one quality review call. A response that cannot be
// parsed yields a Review marked Malformed rather than an error; the
// acceptance policy for that case belongs to the pipeline.
func (c *Client) Review(ctx context.Context, req ReviewRequest) (*Review, error) {
	attachments := append([]Attachment{req.Candidate}, req.References...)

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		SafetySettings:   c.safety,
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.reviewModel, contents(req.Prompt, attachments), cfg)
	if err != nil {
		return nil, classify(err)
	}

	raw := resp.Text()
	payload, err := formatting.Parse[reviewPayload](raw)
	if err != nil {
		c.logger.Warn("review response unparseable", "model", c.reviewModel, "response", raw)
		return &Review{Malformed: true, Reason: "review response unparseable"}, nil
	}

	return payload.review(), nil
}

type reviewPayload struct {
	Likeness   int    `json:"likeness"`
	Continuity int    `json:"continuity"`
	Lettering  int    `json:"lettering"`
	Story      int    `json:"story"`
	Total      int    `json:"total"`
	Reason     string `json:"reason"`
	Pass       bool   `json:"pass"`
}

func (p reviewPayload) review() *Review {
	total := p.Total
	if total == 0 {
		total = p.Likeness + p.Continuity + p.Lettering + p.Story
	}

	return &Review{
		Likeness:   p.Likeness,
		Continuity: p.Continuity,
		Lettering:  p.Lettering,
		Story:      p.Story,
		Total:      total,
		Reason:     p.Reason,
		Pass:       p.Pass,
	}
}

func contents(prompt string, attachments []Attachment) []*genai.Content {
	parts := make([]*genai.Part, 0, len(attachments)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, a := range attachments {
		parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
	}

	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func extractArtifact(resp *genai.GenerateContentResponse) *Artifact {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}

	var artifact *Artifact
	var text string

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 && artifact == nil {
			artifact = &Artifact{
				MIMEType: part.InlineData.MIMEType,
				Data:     part.InlineData.Data,
			}
		}
		if part.Text != "" {
			text += part.Text
		}
	}

	if artifact != nil {
		artifact.Text = text
	}
	return artifact
}

// classify maps API failures onto the run's error taxonomy: credential
// and quota failures are fatal, everything else stays retryable.
func classify(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case 401, 403:
		return fmt.Errorf("%w: %s", ErrAuthentication, apiErr.Message)
	case 429:
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Message)
	default:
		return err
	}
}
