// Package textgen talks to the remote text generator and builds the prompts
// for the two AI features.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gokigennote/gokigen/internal/common"
	"google.golang.org/genai"
)

var ErrNotConfigured = errors.New("text generator api key not configured")

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/"
	DefaultModel    = "gemini-2.5-flash"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini generates text through the Gemini API. The key travels in a
// request header, never in the URL.
type Gemini struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client

	once   sync.Once
	client *genai.Client
	err    error
}

func NewGemini(endpoint, model, apiKey string, hc *http.Client) *Gemini {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{endpoint: endpoint, model: model, apiKey: apiKey, http: hc}
}

func (g *Gemini) connect(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		g.client, g.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:      g.apiKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPClient:  g.http,
			HTTPOptions: genai.HTTPOptions{BaseURL: g.endpoint},
		})
	})
	return g.client, g.err
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrNotConfigured
	}

	client, err := g.connect(context.WithoutCancel(ctx))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, redact(err.Error(), g.apiKey))
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty candidate", common.ErrDecodeFailure)
	}
	return text, nil
}

// redact removes secret from msg.
func redact(msg, secret string) string {
	if secret == "" {
		return msg
	}
	return strings.ReplaceAll(msg, secret, "[redacted]")
}
