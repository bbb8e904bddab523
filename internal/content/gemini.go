package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultModel = "gemini-1.5-flash"

// GeminiGenerator produces text with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is empty", apperr.ErrInvalidArgument)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if modelName == "" {
		modelName = defaultModel
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)

	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(ctx, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response from gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini response carried no text")
	}
	return b.String(), nil
}

// classify maps transport failures onto the retryable error kinds.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("gemini generation: %w", apperr.ErrRequestTimeout)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("gemini generation: %w", &apperr.StatusError{StatusCode: gerr.Code, Body: gerr.Message})
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return fmt.Errorf("gemini generation: %w", &apperr.StatusError{StatusCode: http.StatusTooManyRequests, Body: st.Message()})
		case codes.Unavailable, codes.Internal:
			return fmt.Errorf("gemini generation: %w", &apperr.StatusError{StatusCode: http.StatusServiceUnavailable, Body: st.Message()})
		case codes.DeadlineExceeded:
			return fmt.Errorf("gemini generation: %w", apperr.ErrRequestTimeout)
		}
	}
	return fmt.Errorf("gemini generation error: %w", err)
}
