package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/scrape"
	"github.com/sells-group/broker-catalog/internal/store"
)

// Drafter produces one outreach draft per broker. Per-broker failures are
// returned alongside the drafts that succeeded.
type Drafter interface {
	DraftAll(ctx context.Context, brokers []model.BrokerRecord, tone model.Tone) ([]model.EmailDraft, []error)
}

// Exporter writes pipeline artifacts and returns the paths written.
type Exporter interface {
	WriteBrokers(brokers []model.BrokerRecord) ([]string, error)
	WriteDrafts(drafts []model.EmailDraft) ([]string, error)
	WriteCatalog(records []model.CatalogRecord) ([]string, error)
}

// Pipeline runs the stages as tracked store runs.
type Pipeline struct {
	store    store.Store
	filter   Filter
	extract  *Extractor
	enrich   *Enricher
	tagger   *Tagger
	drafter  Drafter
	exporter Exporter
	tone     model.Tone
	inputErr []error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFormKeywords overrides the Filter's form keywords.
func WithFormKeywords(kw []string) Option {
	return func(p *Pipeline) { p.filter = Filter{Keywords: kw} }
}

// WithTaxonomy overrides the tagging rules.
func WithTaxonomy(t Taxonomy) Option {
	return func(p *Pipeline) { p.tagger = NewTagger(t) }
}

// WithDrafter enables the drafting stage of Run.
func WithDrafter(d Drafter, tone model.Tone) Option {
	return func(p *Pipeline) {
		p.drafter = d
		p.tone = tone
	}
}

// WithExporter writes artifacts at the end of each command.
func WithExporter(e Exporter) Option {
	return func(p *Pipeline) { p.exporter = e }
}

// WithInputErrors records problems found while reading inputs, such as
// skipped rows, in every run's result.
func WithInputErrors(errs []error) Option {
	return func(p *Pipeline) { p.inputErr = append(p.inputErr, errs...) }
}

// New creates a Pipeline that fetches pages through connector.
func New(st store.Store, connector scrape.Connector, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   st,
		filter:  Filter{Keywords: DefaultFormKeywords},
		extract: NewExtractor(connector),
		enrich:  NewEnricher(connector),
		tagger:  NewTagger(DefaultTaxonomy()),
		tone:    model.ToneProfessional,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// BrokerStages runs Filter, Extractor, Deduplicator and Enricher in order.
func (p *Pipeline) BrokerStages(ctx context.Context, listings []model.ListingRecord) State {
	s := NewState(listings)
	s = p.filter.Apply(s)
	s = p.extract.Extract(ctx, s)
	s = Dedupe(s)
	return p.enrich.Enrich(ctx, s)
}

// CatalogStages runs the Linker and the Tagger.
func (p *Pipeline) CatalogStages(listings []model.ListingRecord, brokers []model.BrokerRecord, drafts []model.EmailDraft) []model.CatalogRecord {
	return p.tagger.Tag(Link(listings, brokers, drafts))
}

// Brokers builds the broker database for listings as a tracked run.
func (p *Pipeline) Brokers(ctx context.Context, input model.RunInput, listings []model.ListingRecord) ([]model.BrokerRecord, *model.RunResult, error) {
	t, err := p.begin(ctx, input, listings)
	if err != nil {
		return nil, nil, err
	}
	brokers := p.runBrokers(ctx, t, listings)
	if err := p.exportBrokers(ctx, t, brokers); err != nil {
		return brokers, t.finish(ctx, err), err
	}
	return brokers, t.finish(ctx, nil), nil
}

// Catalog links and tags already-built inputs as a tracked run.
func (p *Pipeline) Catalog(ctx context.Context, input model.RunInput, listings []model.ListingRecord, brokers []model.BrokerRecord, drafts []model.EmailDraft) ([]model.CatalogRecord, *model.RunResult, error) {
	t, err := p.begin(ctx, input, listings)
	if err != nil {
		return nil, nil, err
	}
	t.result.Brokers = len(brokers)
	t.result.Drafts = len(drafts)
	records, err := p.runCatalog(ctx, t, listings, brokers, drafts)
	return records, t.finish(ctx, err), err
}

// Run executes every stage: brokers, drafts, then the catalog.
func (p *Pipeline) Run(ctx context.Context, input model.RunInput, listings []model.ListingRecord) ([]model.CatalogRecord, *model.RunResult, error) {
	t, err := p.begin(ctx, input, listings)
	if err != nil {
		return nil, nil, err
	}

	brokers := p.runBrokers(ctx, t, listings)
	if err := p.exportBrokers(ctx, t, brokers); err != nil {
		return nil, t.finish(ctx, err), err
	}

	var drafts []model.EmailDraft
	if p.drafter != nil {
		t.setStatus(ctx, model.RunStatusDrafting)
		_ = t.phase(ctx, "draft", func() (map[string]any, error) {
			var errs []error
			drafts, errs = p.drafter.DraftAll(ctx, brokers, p.tone)
			for _, e := range errs {
				t.addError(e)
			}
			return map[string]any{"drafts": len(drafts), "failed": len(errs)}, nil
		})
		t.result.Drafts = len(drafts)
		if p.exporter != nil {
			paths, err := p.exporter.WriteDrafts(drafts)
			t.result.Artifacts = append(t.result.Artifacts, paths...)
			if err != nil {
				return nil, t.finish(ctx, err), err
			}
		}
	}

	records, err := p.runCatalog(ctx, t, listings, brokers, drafts)
	return records, t.finish(ctx, err), err
}

func (p *Pipeline) runBrokers(ctx context.Context, t *tracker, listings []model.ListingRecord) []model.BrokerRecord {
	t.setStatus(ctx, model.RunStatusExtracting)

	s := NewState(listings)
	_ = t.phase(ctx, "filter", func() (map[string]any, error) {
		s = p.filter.Apply(s)
		return map[string]any{"pending": len(s.pending)}, nil
	})
	_ = t.phase(ctx, "extract", func() (map[string]any, error) {
		s = p.extract.Extract(ctx, s)
		return map[string]any{"candidates": len(s.brokers), "errors": len(s.errs)}, nil
	})
	t.result.Pending = len(s.pending)
	t.result.Extracted = len(s.brokers)

	_ = t.phase(ctx, "dedupe", func() (map[string]any, error) {
		s = Dedupe(s)
		return map[string]any{"brokers": len(s.brokers)}, nil
	})
	_ = t.phase(ctx, "enrich", func() (map[string]any, error) {
		s = p.enrich.Enrich(ctx, s)
		return map[string]any{"brokers": len(s.brokers)}, nil
	})

	for _, e := range s.errs {
		t.addError(e)
	}
	brokers := s.Brokers()
	t.result.Brokers = len(brokers)

	if err := p.store.SaveBrokers(ctx, t.run.ID, brokers); err != nil {
		t.log.Warn("pipeline: save brokers failed", zap.Error(err))
	}
	return brokers
}

func (p *Pipeline) exportBrokers(ctx context.Context, t *tracker, brokers []model.BrokerRecord) error {
	if p.exporter == nil {
		return nil
	}
	t.setStatus(ctx, model.RunStatusExporting)
	paths, err := p.exporter.WriteBrokers(brokers)
	t.result.Artifacts = append(t.result.Artifacts, paths...)
	return err
}

func (p *Pipeline) runCatalog(ctx context.Context, t *tracker, listings []model.ListingRecord, brokers []model.BrokerRecord, drafts []model.EmailDraft) ([]model.CatalogRecord, error) {
	t.setStatus(ctx, model.RunStatusLinking)

	var records []model.CatalogRecord
	_ = t.phase(ctx, "link", func() (map[string]any, error) {
		records = Link(listings, brokers, drafts)
		return map[string]any{"records": len(records)}, nil
	})
	_ = t.phase(ctx, "tag", func() (map[string]any, error) {
		records = p.tagger.Tag(records)
		return map[string]any{"records": len(records)}, nil
	})
	t.result.Catalog = len(records)

	if err := t.phase(ctx, "persist", func() (map[string]any, error) {
		return nil, p.store.SaveCatalog(ctx, t.run.ID, records)
	}); err != nil {
		return records, eris.Wrap(err, "pipeline: persist catalog")
	}

	if p.exporter != nil {
		t.setStatus(ctx, model.RunStatusExporting)
		paths, err := p.exporter.WriteCatalog(records)
		t.result.Artifacts = append(t.result.Artifacts, paths...)
		if err != nil {
			return records, err
		}
	}
	return records, nil
}

// tracker records one run's phases and result in the store.
type tracker struct {
	store  store.Store
	run    *model.Run
	result *model.RunResult
	log    *zap.Logger
}

func (p *Pipeline) begin(ctx context.Context, input model.RunInput, listings []model.ListingRecord) (*tracker, error) {
	run, err := p.store.CreateRun(ctx, input)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("command", input.Command))
	log.Info("pipeline: run started", zap.Int("listings", len(listings)))
	t := &tracker{
		store:  p.store,
		run:    run,
		result: &model.RunResult{Listings: len(listings)},
		log:    log,
	}
	for _, err := range p.inputErr {
		t.addError(err)
	}
	return t, nil
}

func (t *tracker) setStatus(ctx context.Context, status model.RunStatus) {
	if err := t.store.UpdateRunStatus(ctx, t.run.ID, status); err != nil {
		t.log.Warn("pipeline: failed to update status", zap.Error(err))
	}
}

func (t *tracker) addError(err error) {
	if err != nil {
		t.result.Errors = append(t.result.Errors, err.Error())
	}
}

// phase runs fn as a named phase and records its outcome.
func (t *tracker) phase(ctx context.Context, name string, fn func() (map[string]any, error)) error {
	ph, err := t.store.CreatePhase(ctx, t.run.ID, name)
	if err != nil {
		t.log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(err))
	}

	start := time.Now()
	meta, fnErr := fn()
	res := model.PhaseResult{
		Name:     name,
		Status:   model.PhaseStatusComplete,
		Duration: time.Since(start).Milliseconds(),
		Metadata: meta,
	}
	if fnErr != nil {
		res.Status = model.PhaseStatusFailed
		res.Error = fnErr.Error()
		t.log.Error("pipeline: phase failed", zap.String("phase", name), zap.Int64("duration_ms", res.Duration), zap.Error(fnErr))
	} else {
		t.log.Info("pipeline: phase complete", zap.String("phase", name), zap.Int64("duration_ms", res.Duration))
	}

	if ph != nil {
		if err := t.store.CompletePhase(ctx, ph.ID, &res); err != nil {
			t.log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(err))
		}
	}
	t.result.Phases = append(t.result.Phases, res)
	return fnErr
}

// finish stores the result. A non-nil err marks the run failed.
func (t *tracker) finish(ctx context.Context, err error) *model.RunResult {
	if err != nil {
		t.result.Error = err.Error()
	}
	if uerr := t.store.UpdateRunResult(ctx, t.run.ID, t.result); uerr != nil {
		t.log.Warn("pipeline: failed to store run result", zap.Error(uerr))
	}
	t.log.Info("pipeline: run finished",
		zap.Int("brokers", t.result.Brokers),
		zap.Int("catalog", t.result.Catalog),
		zap.Int("errors", len(t.result.Errors)),
		zap.Bool("failed", err != nil),
	)
	return t.result
}
