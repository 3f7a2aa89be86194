// Package service routes registry commands and runs the batch jobs.
package service

import (
	"context"
	"errors"
	"fmt"

	repository "github.com/okian/obituary/internal/adapters/repository"
	"github.com/okian/obituary/internal/domain/command"
	"github.com/okian/obituary/internal/domain/enrich"
	"github.com/okian/obituary/internal/domain/history"
	"github.com/okian/obituary/internal/domain/model"
	"github.com/okian/obituary/internal/domain/reconcile"
	"github.com/okian/obituary/internal/domain/resolve"
	"github.com/okian/obituary/internal/domain/verify"
	"github.com/okian/obituary/pkg/logger"
	"github.com/okian/obituary/pkg/metrics"
)

// ErrNotConfigured is returned when a command needs a component the
// service was built without.
var ErrNotConfigured = errors.New("component not configured")

// ViewRecorder accumulates engagement per display name.
type ViewRecorder interface {
	RecordView(ctx context.Context, name string, seconds int) (repository.ViewStats, error)
}

// Result describes what one invocation did.
type Result struct {
	Kind     string
	Changed  bool
	Affected int
	Outcome  reconcile.Outcome
	Names    []string
}

// Service executes commands against the registry. Each call is one
// load-apply-save transaction on the store.
type Service struct {
	store      repository.Store
	views      ViewRecorder
	resolver   *resolve.Resolver
	verifier   *verify.Verifier
	reconciler *reconcile.Reconciler
	importer   *history.Importer
	enricher   *enrich.Enricher
	logger     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithViewRecorder sets where VIEW events are counted.
func WithViewRecorder(v ViewRecorder) Option {
	return func(s *Service) {
		s.views = v
	}
}

// WithResolver sets the resolver used by ADD.
func WithResolver(r *resolve.Resolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

// WithVerifier sets the verifier used by ADD.
func WithVerifier(v *verify.Verifier) Option {
	return func(s *Service) {
		s.verifier = v
	}
}

// WithReconciler replaces the default reconciler.
func WithReconciler(r *reconcile.Reconciler) Option {
	return func(s *Service) {
		if r != nil {
			s.reconciler = r
		}
	}
}

// WithImporter sets the historical importer.
func WithImporter(i *history.Importer) Option {
	return func(s *Service) {
		s.importer = i
	}
}

// WithEnricher sets the bio and image enricher.
func WithEnricher(e *enrich.Enricher) Option {
	return func(s *Service) {
		s.enricher = e
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reconciler == nil {
		s.reconciler = reconcile.New(reconcile.WithLogger(s.logger.Named("reconciler")))
	}
	return s
}

// Execute parses raw once and dispatches it. Unrecognized text is a no-op.
// Only store I/O failures and missing components are returned as errors;
// resolution failures end up as sentinel records.
func (s *Service) Execute(ctx context.Context, raw string) (Result, error) {
	cmd := command.Parse(raw)
	metrics.RecordCommand(cmd.Kind())
	s.logger.Info(ctx, "executing command", logger.String("kind", cmd.Kind()))

	var (
		res Result
		err error
	)
	switch c := cmd.(type) {
	case command.Add:
		res, err = s.add(ctx, c)
	case command.Approve:
		res, err = s.mutate(ctx, func(reg *repository.Registry) int { return reg.ApproveByName(c.Name) })
	case command.ApproveBulk:
		res, err = s.mutate(ctx, func(reg *repository.Registry) int { return reg.ApproveByNames(c.Names) })
	case command.ApproveAll:
		res, err = s.mutate(ctx, func(reg *repository.Registry) int { return reg.ApproveAll() })
	case command.Delete:
		res, err = s.mutate(ctx, func(reg *repository.Registry) int { return reg.DeleteByName(c.Name) })
	case command.DeleteBulk:
		res, err = s.mutate(ctx, func(reg *repository.Registry) int { return reg.DeleteByNames(c.Names) })
	case command.View:
		res, err = s.view(ctx, c)
	case command.Unknown:
		s.logger.Info(ctx, "ignoring unrecognized command", logger.String("raw", c.Raw))
	default:
		err = fmt.Errorf("unhandled command %T", cmd)
	}
	res.Kind = cmd.Kind()

	if err != nil {
		metrics.RecordErrorByComponent("service", cmd.Kind())
		s.logger.Error(ctx, "command failed", logger.String("kind", cmd.Kind()), logger.Error(err))
		return res, err
	}
	s.logger.Info(ctx, "command done",
		logger.String("kind", res.Kind),
		logger.Bool("changed", res.Changed),
		logger.Int("affected", res.Affected),
	)
	return res, nil
}

func (s *Service) mutate(ctx context.Context, fn func(reg *repository.Registry) int) (Result, error) {
	var res Result
	changed, err := s.store.Mutate(ctx, func(reg *repository.Registry) (bool, error) {
		res.Affected = fn(reg)
		return res.Affected > 0, nil
	})
	res.Changed = changed
	return res, err
}

func (s *Service) add(ctx context.Context, c command.Add) (Result, error) {
	if s.resolver == nil || s.verifier == nil {
		return Result{}, fmt.Errorf("%w: resolver and verifier are required for %s", ErrNotConfigured, c.Kind())
	}
	log := s.logger.With(logger.String("query", c.Name), logger.String("role", string(c.Role)))

	// Duplicates are decided per candidate: a stored name does not hide
	// homonyms that are not in the registry yet.
	cands := s.resolver.Resolve(ctx, c.Name)
	verified := s.verifier.VerifyAll(ctx, cands)

	var plan reconcile.Plan
	changed, err := s.store.Mutate(ctx, func(reg *repository.Registry) (bool, error) {
		plan = s.reconciler.Reconcile(ctx, c.Name, c.Role, verified, reg)
		for _, rec := range plan.Inserts {
			reg.Insert(rec)
		}
		return plan.Changed(), nil
	})
	if err != nil {
		return Result{}, err
	}

	metrics.RecordAddOutcome(string(plan.Outcome))
	names := make([]string, 0, len(plan.Inserts))
	for _, rec := range plan.Inserts {
		names = append(names, rec.Name)
	}
	log.Info(ctx, "add reconciled",
		logger.String("outcome", string(plan.Outcome)),
		logger.Strings("inserted", names),
		logger.Strings("skipped", plan.Skipped),
		logger.Int("candidates", len(cands)),
	)
	return Result{Changed: changed, Affected: len(names), Outcome: plan.Outcome, Names: names}, nil
}

func (s *Service) view(ctx context.Context, c command.View) (Result, error) {
	if s.views == nil {
		return Result{}, fmt.Errorf("%w: view recorder is required for %s", ErrNotConfigured, c.Kind())
	}
	stats, err := s.views.RecordView(ctx, c.Name, c.Seconds)
	if err != nil {
		return Result{}, err
	}
	s.logger.Debug(ctx, "view recorded",
		logger.String("name", c.Name),
		logger.Int("views", stats.Views),
		logger.Int("seconds", stats.Time),
	)
	return Result{Changed: true, Affected: 1}, nil
}

// ImportHistorical bulk-imports famous deaths per epoch. It fails with
// model.ErrSourceUnavailable when the source cannot be reached at all.
func (s *Service) ImportHistorical(ctx context.Context) (Result, error) {
	res := Result{Kind: "import_historical"}
	if s.importer == nil {
		return res, fmt.Errorf("%w: importer", ErrNotConfigured)
	}
	recs, report, err := s.importer.Collect(ctx)
	if err != nil {
		return res, err
	}

	var plan reconcile.Plan
	changed, err := s.store.Mutate(ctx, func(reg *repository.Registry) (bool, error) {
		plan = s.reconciler.Admit(ctx, model.RoleHistorical, recs, reg)
		for _, rec := range plan.Inserts {
			reg.Insert(rec)
		}
		return plan.Changed(), nil
	})
	if err != nil {
		return res, err
	}

	res.Changed = changed
	res.Affected = len(plan.Inserts)
	res.Outcome = plan.Outcome
	s.logger.Info(ctx, "historical import done",
		logger.Int("epochs", report.Epochs),
		logger.Int("failed_epochs", report.Failed),
		logger.Int("rows", report.Rows),
		logger.Int("inserted", res.Affected),
		logger.Int("skipped", len(plan.Skipped)),
	)
	return res, nil
}

// RepairImages fills missing record images.
func (s *Service) RepairImages(ctx context.Context) (Result, error) {
	return s.enrich(ctx, "repair_images", func(reg *repository.Registry) int {
		return s.enricher.RepairImages(ctx, reg)
	})
}

// RefreshBios re-reads record bios from their pages.
func (s *Service) RefreshBios(ctx context.Context) (Result, error) {
	return s.enrich(ctx, "refresh_bios", func(reg *repository.Registry) int {
		return s.enricher.RefreshBios(ctx, reg)
	})
}

func (s *Service) enrich(ctx context.Context, kind string, fn func(reg *repository.Registry) int) (Result, error) {
	if s.enricher == nil {
		return Result{Kind: kind}, fmt.Errorf("%w: enricher", ErrNotConfigured)
	}
	res, err := s.mutate(ctx, fn)
	res.Kind = kind
	if err != nil {
		return res, err
	}
	s.logger.Info(ctx, "enrichment done",
		logger.String("kind", kind),
		logger.Int("updated", res.Affected),
	)
	return res, nil
}
