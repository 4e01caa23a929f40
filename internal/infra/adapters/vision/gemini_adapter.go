package vision

import (
	"context"
	"errors"
	"mime"
	"path"
	"strings"

	"google.golang.org/genai"

	"farcaster-attestation-frame/internal/domain/ports/adapter"
)

var _ adapter.VisionAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter runs the vision check through the Gemini API using the
// official SDK.
type GeminiAdapter struct {
	client *genai.Client
	model  string
	prompt string
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, model, prompt string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if prompt == "" {
		prompt = defaultPrompt
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: model, prompt: prompt}, nil
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) CheckImage(ctx context.Context, imageURL, replyText string) (adapter.Verdict, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(g.prompt + "\n\nReply text: " + replyText),
		genai.NewPartFromURI(imageURL, guessMIME(imageURL)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return adapter.Verdict{}, err
	}
	text := resp.Text()
	if text == "" {
		return adapter.Verdict{}, errors.New("gemini: empty response")
	}
	return parseVerdict(text), nil
}

func guessMIME(imageURL string) string {
	ext := path.Ext(strings.SplitN(imageURL, "?", 2)[0])
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "image/jpeg"
}
