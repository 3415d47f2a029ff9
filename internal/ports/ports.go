package ports

import (
	"context"

	"SafetyDigest/internal/domain"
)

// ReferenceSource pulls candidate references from a time-windowed message
// source. A source that cannot be reached reports an error; the pipeline
// treats that as an empty contribution.
type ReferenceSource interface {
	CollectReferences(ctx context.Context, window domain.TimeWindow) ([]domain.Reference, error)
}

// NewsletterSource pulls labeled newsletter messages within a time window.
type NewsletterSource interface {
	CollectNewsletters(ctx context.Context, window domain.TimeWindow) ([]domain.NewsletterItem, error)
}

// DocumentResolver turns one reference into exactly one outcome. It never
// returns an error: every failure is captured inside the outcome.
type DocumentResolver interface {
	Resolve(ctx context.Context, ref domain.Reference) domain.RetrievalOutcome
}

// DigestProducer consumes the corpus and returns the digest text. It must
// not mutate its input; a failure here is fatal to the run.
type DigestProducer interface {
	Produce(ctx context.Context, corpus domain.Corpus) (string, error)
}

// DeliverySink ships the finished digest text to the operator.
type DeliverySink interface {
	Deliver(ctx context.Context, digest string) error
}
