package model

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/theRebelliousNerd/parseforge/internal/config"
	"github.com/theRebelliousNerd/parseforge/internal/errs"
	"github.com/theRebelliousNerd/parseforge/internal/logging"
)

// GeminiClient implements Client over google.golang.org/genai, mirroring
// the construction shape of the teacher's internal/embedding.GenAIEngine
// (_examples/theRebelliousNerd-codenerd/internal/embedding/genai.go) but
// for text completion instead of embeddings.
type GeminiClient struct {
	client *genai.Client
	model  string
	log    *logging.Logger
}

// NewGeminiClient constructs a Client from LLM config.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, log *logging.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errs.New(errs.KindConfig, "llm.apiKey", fmt.Errorf("required for provider %q", cfg.Provider))
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, errs.New(errs.KindModel, "new genai client", err)
	}

	return &GeminiClient{client: client, model: model, log: log}, nil
}

// Complete issues one completion request. expectJSON requests a
// JSON-mode response when the underlying API supports it; callers still
// validate/parse the reply themselves (CodePhase/SchemaPhase retry on
// ParseError, per spec.md §4.6 step 3).
func (c *GeminiClient) Complete(ctx context.Context, systemMessage, userPrompt string, expectJSON bool) (string, error) {
	c.log.Debugf("genai completion request: model=%s expectJSON=%v promptLen=%d", c.model, expectJSON, len(userPrompt))

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemMessage, genai.RoleUser),
	}
	if expectJSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		return "", errs.New(errs.KindModel, "genai.GenerateContent", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errs.New(errs.KindModel, "genai.GenerateContent", fmt.Errorf("empty response"))
	}

	return resp.Text(), nil
}
