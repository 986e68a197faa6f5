// Package draft generates personalized outreach emails to brokers.
package draft

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/resilience"
)

// DefaultMaxPerRun caps how many brokers one run drafts for.
const DefaultMaxPerRun = 50

// LookupEmail is the placeholder address for a broker without a usable email.
func LookupEmail(name, firm string) string {
	return fmt.Sprintf("[LOOKUP: %s @ %s]", orDefault(name, "Unknown"), orDefault(firm, "Unknown"))
}

// LoadIdentities orders brokers with a usable email first, gives the rest a
// lookup placeholder and keeps at most max of them.
func LoadIdentities(brokers []model.BrokerRecord, max int) []model.BrokerIdentity {
	var withEmail, lookup []model.BrokerIdentity
	for _, b := range brokers {
		id := model.BrokerIdentity{
			Name:          b.Name,
			Firm:          b.Firm,
			Email:         strings.TrimSpace(b.Email),
			Geography:     b.Geography,
			IndustryFocus: b.IndustryFocus,
		}
		if strings.Contains(id.Email, "@") && !strings.HasPrefix(id.Email, "[LOOKUP:") {
			withEmail = append(withEmail, id)
			continue
		}
		id.Email = LookupEmail(b.Name, b.Firm)
		lookup = append(lookup, id)
	}
	all := append(withEmail, lookup...)
	if max > 0 && len(all) > max {
		all = all[:max]
	}
	return all
}

// Service drafts emails through a Generator.
type Service struct {
	gen       Generator
	prompts   *Prompts
	sender    Sender
	maxPerRun int
	retry     resilience.RetryConfig
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMaxPerRun overrides DefaultMaxPerRun.
func WithMaxPerRun(n int) Option {
	return func(s *Service) { s.maxPerRun = n }
}

// WithRetry sets the retry policy for generator calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(s *Service) { s.retry = cfg }
}

// NewService creates a drafting Service.
func NewService(gen Generator, sender Sender, opts ...Option) (*Service, error) {
	prompts, err := LoadPrompts()
	if err != nil {
		return nil, err
	}
	s := &Service{
		gen:       gen,
		prompts:   prompts,
		sender:    sender,
		maxPerRun: DefaultMaxPerRun,
		retry:     resilience.DefaultRetryConfig(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.retry.OnRetry == nil {
		s.retry.OnRetry = resilience.RetryLogger("drafting", "generate")
	}
	return s, nil
}

// Draft writes one email to a broker in the given tone.
func (s *Service) Draft(ctx context.Context, id model.BrokerIdentity, tone model.Tone) (subject, body string, err error) {
	system, prompt, err := s.prompts.Render(tone, id, s.sender)
	if err != nil {
		return "", "", err
	}
	text, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (string, error) {
		return s.gen.Generate(ctx, system, prompt)
	})
	if err != nil {
		return "", "", eris.Wrapf(err, "draft: generate for %s", id.Name)
	}
	subject, body = ParseDraft(text)
	return subject, body, nil
}

// DraftAll drafts for every broker in order. A failed broker is reported in
// the returned errors and the rest continue.
func (s *Service) DraftAll(ctx context.Context, brokers []model.BrokerRecord, tone model.Tone) ([]model.EmailDraft, []error) {
	ids := LoadIdentities(brokers, s.maxPerRun)
	log := zap.L().With(zap.String("tone", string(tone)))
	log.Info("draft: starting", zap.Int("brokers", len(brokers)), zap.Int("drafting", len(ids)))

	var drafts []model.EmailDraft
	var errs []error
	for i, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, eris.Wrapf(ctx.Err(), "draft: %s", id.Name))
			continue
		}
		subject, body, err := s.Draft(ctx, id, tone)
		if err != nil {
			log.Warn("draft: broker failed", zap.Int("index", i), zap.String("broker", id.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		drafts = append(drafts, model.EmailDraft{
			BrokerName:  id.Name,
			BrokerFirm:  id.Firm,
			BrokerEmail: id.Email,
			Subject:     subject,
			Body:        body,
			Tone:        tone,
			GeneratedAt: s.now().UTC(),
		})
	}

	log.Info("draft: complete", zap.Int("drafts", len(drafts)), zap.Int("failed", len(errs)))
	return drafts, errs
}
