// Package analyzer runs the résumé pipeline: rasterize the PDF, extract every
// page with the model, then score the collected pages against a job
// description in one final call.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-analyzer/internal/ai"
	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/report"
)

var (
	ErrEmptyJobDescription = errors.New("job description is required")
	ErrNoPages             = errors.New("no pages were rasterized")
	// ErrScoring wraps a failed final call; Analysis.Score holds the message.
	ErrScoring = errors.New("scoring failed")
)

// Rasterizer renders pdfPath into a batch directory of its own. Analyses
// running at the same time use different batches.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, batch string) ([]string, error)
}

type Config struct {
	// PageWorkers bounds concurrent page extraction calls. 1 keeps the calls
	// strictly sequential.
	PageWorkers int `mapstructure:"page-workers"`
}

// Analysis collects everything produced for one request, including partial
// output when a stage failed.
type Analysis struct {
	RequestID      string
	JobDescription string
	Pages          []string
	PageResults    []ai.Result
	Score          ai.Result
	Report         *report.ScoreReport
	Duration       time.Duration
}

// FailedPages counts page extractions that returned an error record.
func (a *Analysis) FailedPages() int {
	n := 0
	for _, r := range a.PageResults {
		if r.Failed() {
			n++
		}
	}
	return n
}

type Analyzer struct {
	rasterizer Rasterizer
	extractor  ai.Extractor
	cfg        Config
	logger     *zap.Logger
	newID      func() string
}

func New(rasterizer Rasterizer, extractor ai.Extractor, cfg Config, log *zap.Logger) *Analyzer {
	if cfg.PageWorkers < 1 {
		cfg.PageWorkers = 1
	}

	return &Analyzer{
		rasterizer: rasterizer,
		extractor:  extractor,
		cfg:        cfg,
		logger:     logger.WithFields(log),
		newID:      uuid.NewString,
	}
}

// Analyze blocks until every stage has finished. The returned Analysis is
// never nil; the error reports the first stage that did not succeed.
func (a *Analyzer) Analyze(ctx context.Context, pdfPath, jobDescription string) (*Analysis, error) {
	started := time.Now()
	analysis := &Analysis{
		RequestID:      a.newID(),
		JobDescription: strings.TrimSpace(jobDescription),
	}
	defer func() { analysis.Duration = time.Since(started) }()

	log := a.logger.With(zap.String(logger.FieldRequestID, analysis.RequestID))

	if analysis.JobDescription == "" {
		return analysis, ErrEmptyJobDescription
	}

	ctx = ai.WithRequestID(ctx, analysis.RequestID)

	log.Info("converting pdf to images", zap.String("pdf", pdfPath))

	pages, err := a.rasterizer.Rasterize(ctx, pdfPath, analysis.RequestID)
	analysis.Pages = pages
	if err != nil {
		return analysis, fmt.Errorf("rasterize: %w", err)
	}
	if len(pages) == 0 {
		return analysis, ErrNoPages
	}

	log.Info("processing images with gemini", zap.Int("pages", len(pages)), zap.Int("workers", a.cfg.PageWorkers))

	analysis.PageResults, err = a.extractPages(ctx, pages)
	if err != nil {
		return analysis, err
	}

	if failed := analysis.FailedPages(); failed > 0 {
		log.Warn("some pages could not be extracted", zap.Int("failed", failed), zap.Int("pages", len(pages)))
	}

	instruction, err := ai.ScoreInstruction(analysis.JobDescription, analysis.PageResults)
	if err != nil {
		return analysis, err
	}

	log.Info("scoring resume against job description")

	analysis.Score = a.extractor.Extract(ctx, ai.PayloadText, analysis.PageResults, instruction)
	if analysis.Score.Failed() {
		return analysis, fmt.Errorf("%w: %s", ErrScoring, analysis.Score.Error)
	}

	rep, err := report.Decode(analysis.Score.Value)
	if err != nil {
		return analysis, fmt.Errorf("%w: %v", ErrScoring, err)
	}
	analysis.Report = rep

	log.Info("analysis completed",
		zap.Int("overall_score", rep.OverallScore),
		zap.Int("matching_keywords", len(rep.KeywordMatching)),
		zap.Int("missing_keywords", len(rep.MissingKeywords)),
		zap.Duration("took", time.Since(started)),
	)

	return analysis, nil
}

// extractPages runs one image extraction per page. Results are stored by
// index so the output order always equals page order.
func (a *Analyzer) extractPages(ctx context.Context, pages []string) ([]ai.Result, error) {
	results := make([]ai.Result, len(pages))
	instruction := ai.PageInstruction()

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(a.cfg.PageWorkers)

	for i, page := range pages {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i] = a.extractor.Extract(gctx, ai.PayloadImage, page, instruction)

			a.logger.Debug("page extracted",
				zap.Int("page", i+1),
				zap.Bool("failed", results[i].Failed()),
			)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return results, fmt.Errorf("extract pages: %w", err)
	}

	return results, nil
}
