package clients

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms/googleai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-3-flash-preview"

// GoogleAI builds a langchaingo model backed by the Gemini API. The key is
// taken from GOOGLE_API_KEY; a .env file is honored when present.
func GoogleAI(modelName string) (*googleai.GoogleAI, error) {
	_ = godotenv.Load()

	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is not set")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
	llm, err := googleai.New(context.Background(),
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(modelName))
	if err != nil {
		return nil, fmt.Errorf("failed to init Gemini client: %w", err)
	}
	return llm, nil
}
