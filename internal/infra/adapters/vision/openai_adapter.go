package vision

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"farcaster-attestation-frame/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.VisionAdapter = (*OpenAIAdapter)(nil)

const defaultPrompt = "You are a strict content checker. Look at the attached image " +
	"and the reply text and decide whether the image is a genuine, relevant image " +
	"attachment (not a broken link, screenshot of text, or unrelated meme). Answer " +
	"with exactly VALID, or INVALID: <short reason>."

// OpenAIAdapter runs the vision check through the OpenAI Chat Completions API.
type OpenAIAdapter struct {
	client openai.Client
	model  string
	prompt string
}

func NewOpenAIAdapter(apiKey, model, prompt string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if prompt == "" {
		prompt = defaultPrompt
	}
	return &OpenAIAdapter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		prompt: prompt,
	}, nil
}

func (o *OpenAIAdapter) Name() string { return "openai" }

func (o *OpenAIAdapter) CheckImage(ctx context.Context, imageURL, replyText string) (adapter.Verdict, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(o.prompt + "\n\nReply text: " + replyText),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
	}
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
	})
	if err != nil {
		return adapter.Verdict{}, err
	}
	if len(resp.Choices) == 0 {
		return adapter.Verdict{}, errors.New("openai: no choice content")
	}
	return parseVerdict(resp.Choices[0].Message.Content), nil
}

// parseVerdict maps the model's VALID / INVALID: reason protocol to a
// Verdict. Anything unparseable is treated as invalid with the raw answer as
// explanation rather than an adapter error, so one odd completion doesn't
// fail the stage.
func parseVerdict(answer string) adapter.Verdict {
	s := strings.TrimSpace(answer)
	upper := strings.ToUpper(s)
	switch {
	case strings.HasPrefix(upper, "VALID"):
		return adapter.Verdict{IsValid: true}
	case strings.HasPrefix(upper, "INVALID"):
		msg := strings.TrimSpace(strings.TrimPrefix(s[len("INVALID"):], ":"))
		if msg == "" {
			msg = "image rejected by vision check"
		}
		return adapter.Verdict{IsValid: false, Message: msg}
	default:
		return adapter.Verdict{IsValid: false, Message: s}
	}
}
