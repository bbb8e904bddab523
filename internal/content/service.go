// Package content drafts product descriptions with a text generator.
package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"github.com/fekuna/omnipos-catalog-sync/internal/batch"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"go.uber.org/zap"
)

const defaultAttemptTimeout = 60 * time.Second

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Draft is generated content awaiting an explicit save.
type Draft struct {
	ProductID string `json:"product_id"`
	Markdown  string `json:"markdown"`
	HTML      string `json:"html"`
}

type Service struct {
	gen      Generator
	renderer *Renderer
	retry    batch.RetryPolicy
	attempt  time.Duration
	logger   logger.ZapLogger
}

type Option func(*Service)

func WithRetryPolicy(p batch.RetryPolicy) Option {
	return func(s *Service) { s.retry = p }
}

// WithAttemptTimeout bounds each generation attempt.
func WithAttemptTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.attempt = d
		}
	}
}

func NewService(gen Generator, log logger.ZapLogger, opts ...Option) *Service {
	s := &Service{
		gen:      gen,
		renderer: NewRenderer(),
		retry:    batch.DefaultRetryPolicy(),
		attempt:  defaultAttemptTimeout,
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Renderer() *Renderer { return s.renderer }

// Draft generates a description for p. Each attempt runs under its own
// deadline; timeouts and other network-class failures are retried per the
// service's retry policy.
func (s *Service) Draft(ctx context.Context, p model.CatalogProduct, instructions string) (*Draft, error) {
	prompt := buildPrompt(p, instructions)

	text, err := batch.Retry(ctx, s.retry, func(ctx context.Context) (string, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, s.attempt)
		defer cancel()
		out, err := s.gen.Generate(attemptCtx, prompt)
		err = apperr.FromDeadline(ctx, attemptCtx, err)
		if err != nil {
			s.logger.Warn("description generation attempt failed", zap.String("product_id", p.ID), zap.Error(err))
		}
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("generate description for %s: %w", p.ID, err)
	}

	markdown := strings.TrimSpace(text)
	html, err := s.renderer.Render(markdown)
	if err != nil {
		return nil, fmt.Errorf("render description for %s: %w", p.ID, err)
	}
	return &Draft{ProductID: p.ID, Markdown: markdown, HTML: html}, nil
}

func buildPrompt(p model.CatalogProduct, instructions string) string {
	var b strings.Builder
	b.WriteString("Write a concise, persuasive product description in Markdown.\n")
	b.WriteString("Use one short paragraph followed by a bullet list of key features. Do not invent specifications.\n\n")
	fmt.Fprintf(&b, "Product: %s\n", p.Title)
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(p.Tags, ", "))
	}
	for _, o := range p.Options {
		fmt.Fprintf(&b, "Option %s: %s\n", o.Name, strings.Join(o.Values, ", "))
	}
	if d := strings.TrimSpace(p.Description); d != "" {
		fmt.Fprintf(&b, "Current description: %s\n", d)
	}
	if in := strings.TrimSpace(instructions); in != "" {
		fmt.Fprintf(&b, "\nAdditional instructions: %s\n", in)
	}
	return b.String()
}
