// Package analysis turns a URL into one verdict per loaded model.
package analysis

import (
	"context"
	"time"

	"phishguard/internal/classifier"
	"phishguard/internal/features"
	"phishguard/internal/models"
	"phishguard/pkg/logger"
)

// Extractor is satisfied by *features.Extractor.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (models.FeatureVector, error)
	ExtractWithContent(ctx context.Context, rawURL string, page *models.Page) (models.FeatureVector, error)
}

type Service struct {
	extractor Extractor
	registry  *classifier.Registry
	log       *logger.Logger
}

func NewService(ex Extractor, reg *classifier.Registry, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{extractor: ex, registry: reg, log: log}
}

func (s *Service) Registry() *classifier.Registry { return s.registry }

// Analyze fetches rawURL and classifies it. Only invalid input is an error.
func (s *Service) Analyze(ctx context.Context, rawURL string) (*models.AnalysisResult, error) {
	return s.run(ctx, rawURL, func(ctx context.Context) (models.FeatureVector, error) {
		return s.extractor.Extract(ctx, rawURL)
	})
}

// AnalyzeWithContent classifies rawURL using page as its content.
func (s *Service) AnalyzeWithContent(ctx context.Context, rawURL string, page *models.Page) (*models.AnalysisResult, error) {
	return s.run(ctx, rawURL, func(ctx context.Context) (models.FeatureVector, error) {
		return s.extractor.ExtractWithContent(ctx, rawURL, page)
	})
}

func (s *Service) run(ctx context.Context, rawURL string, extract func(context.Context) (models.FeatureVector, error)) (*models.AnalysisResult, error) {
	start := time.Now()
	normalized, _, err := features.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	vec, err := extract(ctx)
	if err != nil {
		return nil, err
	}

	res := &models.AnalysisResult{
		URL:         rawURL,
		Normalized:  normalized,
		Features:    vec,
		Predictions: s.predict(vec),
		Unavailable: s.registry.Unavailable(),
	}
	res.ElapsedMs = time.Since(start).Milliseconds()
	s.log.Info("analyzed", "url", normalized, "models", len(res.Predictions), "unavailable", len(res.Unavailable), "ms", res.ElapsedMs)
	return res, nil
}

func (s *Service) predict(vec models.FeatureVector) []models.Prediction {
	entries := s.registry.Available()
	out := make([]models.Prediction, 0, len(entries))
	for _, e := range entries {
		p, err := classifier.Predict(e.Model, vec)
		p.Model = e.Name
		if err != nil {
			s.log.Warn("prediction failed", "model", e.Name, "error", err)
			p = models.Prediction{Model: e.Name, Error: err.Error()}
		}
		out = append(out, p)
	}
	return out
}
