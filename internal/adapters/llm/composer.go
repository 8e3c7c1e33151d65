// Package llm composes assistant replies with an OpenAI-compatible chat
// completions endpoint.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultModel     = "llama-3.1-8b-instant"
	DefaultMaxTokens = 1024
	DefaultTimeout   = 30 * time.Second

	DefaultConversationalTemperature float32 = 0.7
	DefaultAnalyticalTemperature     float32 = 0.3
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("completion has no content")

const persona = `You are Shruti, a loan assistant at %s.

Your personality:
- Warm, smart and patient, like a helpful teammate
- Clear and conversational, never robotic
- Simple language and short paragraphs
- Light emojis occasionally, never overdone

Rules:
- Only quote the numbers given in the facts. Never invent amounts, rates or dates.
- Never mention internal systems, scoring formulas or that you are an AI model.
- Keep the reply under 120 words unless the task asks for a list.`

var roles = map[domain.Handler]string{
	domain.HandlerMaster:       "You greet customers and find out what they need and how much they want to borrow.",
	domain.HandlerSales:        "You present loan offers transparently and answer questions about EMI, rate and tenure. You are never pushy.",
	domain.HandlerVerification: "You explain the identity verification step and its outcome.",
	domain.HandlerDocument:     "You help customers upload documents with clear, encouraging instructions.",
	domain.HandlerUnderwriting: "You communicate credit decisions factually and kindly. On a rejection you always present the alternative offer.",
	domain.HandlerSanction:     "You announce approvals and explain the sanction letter and disbursement.",
	domain.HandlerCompleted:    "You close the conversation politely.",
}

// Composer implements ports.Composer.
type Composer struct {
	client         *Client
	model          string
	company        string
	maxTokens      int
	timeout        time.Duration
	conversational float32
	analytical     float32
	logger         *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Composer) {
		if model != "" {
			c.model = model
		}
	}
}

// WithCompany sets the lender named in the persona.
func WithCompany(name string) Option {
	return func(c *Composer) {
		if name != "" {
			c.company = name
		}
	}
}

// WithTemperatures sets the sampling temperature per tone.
func WithTemperatures(conversational, analytical float32) Option {
	return func(c *Composer) {
		if conversational > 0 {
			c.conversational = conversational
		}
		if analytical > 0 {
			c.analytical = analytical
		}
	}
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTimeout bounds each completion call.
func WithTimeout(d time.Duration) Option {
	return func(c *Composer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Composer using client.
func New(client *Client, opts ...Option) *Composer {
	c := &Composer{
		client:         client,
		model:          DefaultModel,
		company:        "NBFC Finance",
		maxTokens:      DefaultMaxTokens,
		timeout:        DefaultTimeout,
		conversational: DefaultConversationalTemperature,
		analytical:     DefaultAnalyticalTemperature,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewInstrumentedClient is a Client whose requests are traced.
func NewInstrumentedClient(apiKey, baseURL string) *Client {
	return NewClient(apiKey,
		WithBaseURL(baseURL),
		WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
	)
}

// Compose asks the model for the reply a scenario calls for.
func (c *Composer) Compose(ctx context.Context, scenario ports.Scenario) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	user, err := prompt(scenario)
	if err != nil {
		return "", err
	}
	temperature := c.Temperature(scenario.Tone)
	req := &ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: c.system(scenario.Handler)},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	c.logger.Debug("Reply composed", "handler", scenario.Handler, "kind", scenario.Kind, "duration", time.Since(start))

	for _, choice := range resp.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", ErrEmptyCompletion
}

// Temperature is the sampling temperature used for a tone.
func (c *Composer) Temperature(t ports.Tone) float32 {
	if t == ports.ToneAnalytical {
		return c.analytical
	}
	return c.conversational
}

func (c *Composer) system(h domain.Handler) string {
	s := fmt.Sprintf(persona, c.company)
	if role, ok := roles[h]; ok {
		s += "\n\n" + role
	}
	return s
}

func prompt(s ports.Scenario) (string, error) {
	var b strings.Builder
	b.WriteString("Situation: ")
	b.WriteString(s.Kind)
	b.WriteString("\n")
	if len(s.Facts) > 0 {
		facts, err := json.MarshalIndent(s.Facts, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode facts: %w", err)
		}
		b.WriteString("Facts:\n")
		b.Write(facts)
		b.WriteString("\n")
	}
	if s.UserMessage != "" {
		fmt.Fprintf(&b, "Customer said: %q\n", s.UserMessage)
	}
	b.WriteString("Task: ")
	b.WriteString(s.Instruction)
	return b.String(), nil
}

var _ ports.Composer = (*Composer)(nil)
