package sink

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

// Sink receives extracted records for one site run. Begin opens the run,
// Write is called once per record in extraction order, Close flushes and
// releases resources. A sink must survive Close after a failed Begin.
type Sink interface {
	Begin(ctx context.Context, siteID, companyName string) error
	Write(ctx context.Context, record models.JobRecord) error
	Close(ctx context.Context) error
}

// MultiSink fans records out to several sinks. A write failure in one sink
// is logged and does not stop deliveries to the others.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink bundles sinks into one. Nil entries are dropped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	var kept []Sink
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiSink{sinks: kept}
}

func (m *MultiSink) Begin(ctx context.Context, siteID, companyName string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Begin(ctx, siteID, companyName); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Write(ctx context.Context, record models.JobRecord) error {
	for _, s := range m.sinks {
		if err := s.Write(ctx, record); err != nil {
			log.Warn().Str("title", record.Title).Err(err).Msg("Sink write failed")
		}
	}
	return nil
}

func (m *MultiSink) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
