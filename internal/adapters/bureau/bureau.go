// Package bureau fetches credit scores. When an external endpoint is
// configured PAN lookups go to it; otherwise, and whenever it fails, scores
// are simulated deterministically.
package bureau

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/internal/underwriting"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MaxScore is the top of the score scale.
const MaxScore = 900

// Simulated scores fall in [simulatedFloor, simulatedFloor+simulatedSpan).
const (
	simulatedFloor = 650
	simulatedSpan  = 201
)

const defaultTimeout = 5 * time.Second

// ErrNoIdentity is returned when a query carries neither a PAN nor any identity.
var ErrNoIdentity = errors.New("no PAN or identity to score")

// Bureau implements ports.CreditBureau.
type Bureau struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	directory  ports.CustomerDirectory
	logger     *slog.Logger
}

// Option configures a Bureau.
type Option func(*Bureau)

// WithEndpoint enables the external API. apiKey is sent as a bearer token when set.
func WithEndpoint(url, apiKey string) Option {
	return func(b *Bureau) {
		b.endpoint = url
		b.apiKey = apiKey
	}
}

// WithHTTPClient sets the client used for the external API.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Bureau) { b.httpClient = c }
}

// WithDirectory lets identity lookups use the score on file for known customers.
func WithDirectory(d ports.CustomerDirectory) Option {
	return func(b *Bureau) { b.directory = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bureau) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Bureau.
func New(opts ...Option) *Bureau {
	b := &Bureau{
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LookupCreditScore scores a PAN, or an identity when no PAN is given.
func (b *Bureau) LookupCreditScore(ctx context.Context, q ports.CreditQuery) (ports.CreditReport, error) {
	if pan := strings.ToUpper(strings.TrimSpace(q.PAN)); pan != "" {
		if b.endpoint != "" {
			report, err := b.remote(ctx, pan)
			if err == nil {
				return report, nil
			}
			b.logger.Warn("Credit bureau API failed, simulating score", "err", err)
		}
		return simulated(PANScore(pan)), nil
	}

	if b.directory != nil {
		for _, key := range []string{q.Identity.CustomerID, q.Identity.Email} {
			if key == "" {
				continue
			}
			if c, err := b.directory.Lookup(ctx, key); err == nil && c.CreditScore > 0 {
				return simulated(c.CreditScore), nil
			}
		}
	}

	key := identityKey(q.Identity)
	if key == "" {
		return ports.CreditReport{}, ErrNoIdentity
	}
	return simulated(IdentityScore(key)), nil
}

// PANScore is the simulated score of a PAN: 650 plus the sum of its
// alphanumeric code points modulo 201.
func PANScore(pan string) int {
	sum := 0
	for _, r := range strings.ToUpper(pan) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sum += int(r)
		}
	}
	return simulatedFloor + sum%simulatedSpan
}

// IdentityScore is a stable simulated score for someone with no PAN and no
// record on file.
func IdentityScore(key string) int {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(key)))
	return simulatedFloor + int(h.Sum32()%simulatedSpan)
}

func identityKey(id ports.Identity) string {
	for _, k := range []string{id.Email, id.CustomerID, id.Phone, id.Name} {
		if k != "" {
			return k
		}
	}
	return ""
}

func simulated(score int) ports.CreditReport {
	return ports.CreditReport{
		Success:  true,
		Score:    score,
		MaxScore: MaxScore,
		Rating:   underwriting.Rating(score),
		Factors:  underwriting.Factors(score),
	}
}

// remoteScore is the external API payload. Numbers may arrive as strings.
type remoteScore struct {
	Score    int    `mapstructure:"score"`
	MaxScore int    `mapstructure:"max_score"`
	Rating   string `mapstructure:"rating"`
}

func (b *Bureau) remote(ctx context.Context, pan string) (ports.CreditReport, error) {
	body, err := json.Marshal(map[string]string{"pan": pan})
	if err != nil {
		return ports.CreditReport{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.CreditReport{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return ports.CreditReport{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ports.CreditReport{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ports.CreditReport{}, fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ports.CreditReport{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	var score remoteScore
	if err := mapstructure.WeakDecode(payload, &score); err != nil {
		return ports.CreditReport{}, fmt.Errorf("failed to decode score: %w", err)
	}
	if score.Score <= 0 {
		return ports.CreditReport{}, errors.New("response carries no score")
	}
	if score.MaxScore <= 0 {
		score.MaxScore = MaxScore
	}
	if score.Rating == "" {
		score.Rating = underwriting.Rating(score.Score)
	}
	return ports.CreditReport{
		Success:  true,
		Score:    score.Score,
		MaxScore: score.MaxScore,
		Rating:   score.Rating,
	}, nil
}

var _ ports.CreditBureau = (*Bureau)(nil)
