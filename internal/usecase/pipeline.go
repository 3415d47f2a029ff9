package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"SafetyDigest/internal/config"
	"SafetyDigest/internal/domain"
	"SafetyDigest/internal/ports"
)

// PipelineDeps wires all collaborators into the aggregation pipeline.
type PipelineDeps struct {
	References  ports.ReferenceSource
	Newsletters ports.NewsletterSource
	Resolver    ports.DocumentResolver
	Producer    ports.DigestProducer
	Sink        ports.DeliverySink
	Logger      *slog.Logger
	Clock       func() time.Time
}

// Pipeline orchestrates one digest run: collect, dedupe, resolve, produce,
// archive, deliver. Collector and resolver failures stay inside the run;
// producer and delivery failures propagate to the caller.
type Pipeline struct {
	cfg         config.DigestConfig
	references  ports.ReferenceSource
	newsletters ports.NewsletterSource
	resolver    ports.DocumentResolver
	producer    ports.DigestProducer
	sink        ports.DeliverySink
	logger      *slog.Logger
	clock       func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(cfg config.DigestConfig, deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		cfg:         cfg,
		references:  deps.References,
		newsletters: deps.Newsletters,
		resolver:    deps.Resolver,
		producer:    deps.Producer,
		sink:        deps.Sink,
		logger:      logger,
		clock:       clock,
	}
}

// Run executes a single digest cycle and returns the report alongside any
// fatal error. An empty corpus still flows to the producer.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	window := domain.NewTimeWindow(p.clock(), p.cfg.DaysBack)
	p.logger.Info("starting digest run",
		"window_start", window.Start.Format(time.RFC3339),
		"window_end", window.End.Format(time.RFC3339))

	refs := p.collectReferences(ctx, window)
	newsletters := p.collectNewsletters(ctx, window)

	capped := refs
	if p.cfg.MaxReferences > 0 && len(capped) > p.cfg.MaxReferences {
		capped = capped[:p.cfg.MaxReferences]
	}

	outcomes := p.resolveAll(ctx, capped)

	report := domain.Report{
		ReferencesFound:  len(refs),
		NewslettersFound: len(newsletters),
		Resolved:         len(outcomes),
	}
	for _, outcome := range outcomes {
		if outcome.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	p.logger.Info("corpus assembled",
		"references", report.ReferencesFound,
		"newsletters", report.NewslettersFound,
		"resolved", report.Resolved,
		"succeeded", report.Succeeded,
		"failed", report.Failed)

	corpus := domain.Corpus{Newsletters: newsletters, Documents: outcomes}

	digest, err := p.producer.Produce(ctx, corpus)
	if err != nil {
		return report, fmt.Errorf("produce digest: %w", err)
	}

	p.archive(digest)

	if p.sink != nil {
		if err := p.sink.Deliver(ctx, digest); err != nil {
			return report, fmt.Errorf("deliver digest: %w", err)
		}
	}

	p.logger.Info("digest run completed")
	return report, nil
}

// collectReferences treats an unreachable source as an empty contribution.
func (p *Pipeline) collectReferences(ctx context.Context, window domain.TimeWindow) []domain.Reference {
	if p.references == nil {
		return nil
	}
	refs, err := p.references.CollectReferences(ctx, window)
	if err != nil {
		p.logger.Warn("reference source unavailable", "error", err)
		return nil
	}
	return domain.DedupeReferences(refs)
}

func (p *Pipeline) collectNewsletters(ctx context.Context, window domain.TimeWindow) []domain.NewsletterItem {
	if p.newsletters == nil {
		return nil
	}
	items, err := p.newsletters.CollectNewsletters(ctx, window)
	if err != nil {
		p.logger.Warn("newsletter source unavailable", "error", err)
		return nil
	}
	return items
}

// resolveAll resolves references with a bounded worker pool. Each slot in the
// result matches the input position, so corpus order equals discovery order
// no matter how workers interleave. Workers never return errors: every
// failure lives inside its outcome.
func (p *Pipeline) resolveAll(ctx context.Context, refs []domain.Reference) []domain.RetrievalOutcome {
	if len(refs) == 0 || p.resolver == nil {
		return []domain.RetrievalOutcome{}
	}

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]domain.RetrievalOutcome, len(refs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			outcomes[i] = p.resolver.Resolve(ctx, ref)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// archive preserves the artifact before delivery is attempted, so a delivery
// failure never destroys completed work. Archiving problems are logged, not
// fatal.
func (p *Pipeline) archive(digest string) {
	if p.cfg.ArtifactPath == "" {
		return
	}
	if err := os.WriteFile(p.cfg.ArtifactPath, []byte(digest), 0o644); err != nil {
		p.logger.Warn("cannot archive digest", "path", p.cfg.ArtifactPath, "error", err)
		return
	}
	p.logger.Info("digest archived", "path", p.cfg.ArtifactPath)
}
