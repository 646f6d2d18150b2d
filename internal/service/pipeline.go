package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vanshika/chargeback/backend/internal/aggregate"
	"github.com/vanshika/chargeback/backend/internal/capture"
	"github.com/vanshika/chargeback/backend/internal/classify"
	"github.com/vanshika/chargeback/backend/internal/config"
	"github.com/vanshika/chargeback/backend/internal/domain"
	"github.com/vanshika/chargeback/backend/internal/events"
	"github.com/vanshika/chargeback/backend/internal/evidence"
	"github.com/vanshika/chargeback/backend/internal/geo"
	"github.com/vanshika/chargeback/backend/internal/policy"
	"github.com/vanshika/chargeback/backend/internal/render"
	"github.com/vanshika/chargeback/backend/internal/repository"
	"github.com/vanshika/chargeback/backend/internal/shopify"
)

var (
	// ErrMissingPaymentID is returned for a blank payment identifier.
	ErrMissingPaymentID = errors.New("payment id is required")
	// ErrReasoning marks a case that failed because the reasoning step failed.
	ErrReasoning = errors.New("reasoning step failed")
)

// PaymentStore resolves payment records and shop credentials.
type PaymentStore interface {
	PaymentInfo(ctx context.Context, paymentID string) (domain.PaymentInfo, error)
	ShopCredentials(ctx context.Context, tenantID string) (domain.ShopCredentials, error)
}

// Reasoner returns the raw reasoning response for a payment.
type Reasoner interface {
	Analyze(ctx context.Context, paymentID string) ([]byte, error)
}

// OrderSource reads order transactions and fulfillment tracking.
type OrderSource interface {
	Transactions(ctx context.Context, creds domain.ShopCredentials, orderID string) ([]shopify.Transaction, error)
	Tracking(ctx context.Context, creds domain.ShopCredentials, reference string) (domain.TrackingInfo, error)
}

// IdentitySource looks up public identity records by phone number.
type IdentitySource interface {
	Lookup(ctx context.Context, phone string) (domain.IdentityRecord, error)
}

// EvidenceGraph reads per-payment locations and sessions.
type EvidenceGraph interface {
	GeoPoints(ctx context.Context, paymentID string) ([]domain.GeoPoint, error)
	SessionActivity(ctx context.Context, paymentID string) (repository.Activity, error)
}

// Deps are the collaborators of a Generator. Payments, Orders, Identity,
// Graph and Publisher may be nil; the evidence they provide then degrades.
type Deps struct {
	Payments   PaymentStore
	Reasoner   Reasoner
	Orders     OrderSource
	Identity   IdentitySource
	Graph      EvidenceGraph
	Capturer   capture.Capturer
	Publisher  events.Publisher
	Classifier *classify.Classifier
	Normalizer *evidence.Normalizer
	Renderer   *render.Renderer
	Analyzer   *geo.Analyzer
	Policies   policy.Table
}

// Settings tune a Generator.
type Settings struct {
	OutputDir       string
	Workers         int
	Timeout         time.Duration
	PolicyImageDir  string
	IdentityPageURL string
}

// SettingsFromConfig maps the pipeline and capture sections to Settings.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		OutputDir:       cfg.Pipeline.OutputDir,
		Workers:         cfg.Pipeline.EvidenceWorkers,
		Timeout:         cfg.Pipeline.EvidenceTimeout,
		PolicyImageDir:  cfg.Pipeline.PolicyImageDir,
		IdentityPageURL: cfg.Capture.IdentityPageURL,
	}
}

// SlotReport records an evidence fetch that did not succeed.
type SlotReport struct {
	Task   string        `json:"task" yaml:"task"`
	Status domain.Status `json:"status" yaml:"status"`
	Reason string        `json:"reason" yaml:"reason"`
}

// Outcome describes one generated document.
type Outcome struct {
	PaymentID string                `json:"paymentid" yaml:"paymentid"`
	Reference string                `json:"reference,omitempty" yaml:"reference,omitempty"`
	Category  domain.ReasonCategory `json:"category,omitempty" yaml:"category,omitempty"`
	FileName  string                `json:"filename,omitempty" yaml:"filename,omitempty"`
	Path      string                `json:"path,omitempty" yaml:"path,omitempty"`
	Degraded  []SlotReport          `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// DegradedTasks lists the names of the degraded or failed fetches.
func (o Outcome) DegradedTasks() []string {
	out := make([]string, 0, len(o.Degraded))
	for _, r := range o.Degraded {
		out = append(out, r.Task)
	}
	return out
}

// Generator runs the per-case pipeline: reasoning, classification, bounded
// evidence fetches, aggregation, rendering and the outcome event.
type Generator struct {
	deps     Deps
	settings Settings
	logger   *slog.Logger
	nowFn    func() time.Time
}

const (
	defaultWorkers = 6
	defaultTimeout = 60 * time.Second
)

// NewGenerator wires a Generator. Missing core collaborators get defaults.
func NewGenerator(deps Deps, settings Settings, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Capturer == nil {
		deps.Capturer = capture.New(config.CaptureConfig{}, logger)
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Noop{}
	}
	if deps.Classifier == nil {
		deps.Classifier = classify.New(classify.DefaultTables(), logger)
	}
	if deps.Normalizer == nil {
		deps.Normalizer = evidence.NewNormalizer(logger)
	}
	if deps.Renderer == nil {
		deps.Renderer = render.New(render.FileLoader{}, render.WithLogger(logger))
	}
	if deps.Analyzer == nil {
		deps.Analyzer = geo.NewAnalyzer(0)
	}
	if len(deps.Policies.Tenants()) == 0 {
		deps.Policies = policy.DefaultTable()
	}
	if settings.Workers <= 0 {
		settings.Workers = defaultWorkers
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaultTimeout
	}
	if settings.OutputDir == "" {
		settings.OutputDir = "."
	}
	return &Generator{
		deps:     deps,
		settings: settings,
		logger:   logger.With("component", "generator"),
		nowFn:    time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (g *Generator) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		g.nowFn = nowFn
	}
}

// OutputDir is the directory documents are written to.
func (g *Generator) OutputDir() string {
	return g.settings.OutputDir
}

// Classify resolves a raw dispute reason to its document category.
func (g *Generator) Classify(reason string) domain.ReasonCategory {
	return g.deps.Classifier.Classify(reason)
}

// Generate produces the dispute document of one payment.
func (g *Generator) Generate(ctx context.Context, paymentID string) (Outcome, error) {
	return g.GenerateInRun(ctx, "", paymentID)
}

// GenerateInRun is Generate with the batch run id attached to logs and events.
func (g *Generator) GenerateInRun(ctx context.Context, runID, paymentID string) (Outcome, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return Outcome{}, ErrMissingPaymentID
	}
	logger := g.logger.With("payment_id", paymentID)
	if runID != "" {
		logger = logger.With("run_id", runID)
	}

	start := g.nowFn()
	out, err := g.generate(ctx, paymentID, logger)
	if err != nil {
		logger.Error("document generation failed", "error", err)
	} else {
		logger.Info("document generated",
			"file", out.FileName,
			"category", out.Category,
			"degraded", len(out.Degraded),
			"duration", g.nowFn().Sub(start).String(),
		)
	}
	g.publish(ctx, runID, out, err, logger)
	return out, err
}

func (g *Generator) generate(ctx context.Context, paymentID string, logger *slog.Logger) (Outcome, error) {
	out := Outcome{PaymentID: paymentID}
	cr := &caseRun{paymentID: paymentID, logger: logger}

	cr.info = g.paymentInfo(ctx, cr)

	body, err := g.deps.Reasoner.Analyze(ctx, paymentID)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrReasoning, err)
	}
	n, err := g.deps.Normalizer.NormalizeJSON(body)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrReasoning, err)
	}

	category := g.deps.Classifier.Classify(n.Reason)
	cr.n = n
	cr.dispute = newCase(paymentID, cr.info, n, category)
	cr.plan = aggregate.NewPlan(n, category)
	out.Reference = cr.dispute.Reference
	out.Category = category

	logger.Info("evidence plan resolved",
		"category", category,
		"reference", cr.dispute.Reference,
		"tenant", n.Tenant,
		"tasks", cr.plan.Tasks(),
	)

	if err := g.gather(ctx, cr); err != nil {
		return out, fmt.Errorf("gather evidence: %w", err)
	}
	out.Degraded = cr.reports

	bundle := aggregate.Aggregate(n, category, cr.opt)
	doc, err := g.deps.Renderer.Render(cr.dispute, bundle, cr.opt.Geo)
	if err != nil {
		return out, fmt.Errorf("render document: %w", err)
	}

	path, err := g.write(doc)
	if err != nil {
		return out, err
	}
	out.FileName = doc.FileName
	out.Path = path
	return out, nil
}

// paymentInfo resolves the payment record. A missing record degrades every
// tenant-dependent fetch but does not fail the case.
func (g *Generator) paymentInfo(ctx context.Context, cr *caseRun) domain.PaymentInfo {
	fallback := domain.PaymentInfo{PaymentID: cr.paymentID}
	if g.deps.Payments == nil {
		note(cr, "payment_info", domain.Degraded[struct{}]("payment store not configured"))
		return fallback
	}
	tctx, cancel := context.WithTimeout(ctx, g.settings.Timeout)
	defer cancel()
	info, ok := note(cr, "payment_info", resultOf(g.deps.Payments.PaymentInfo(tctx, cr.paymentID)))
	if !ok {
		return fallback
	}
	return info
}

func newCase(paymentID string, info domain.PaymentInfo, n evidence.Normalized, c domain.ReasonCategory) domain.DisputeCase {
	narr := n.Narrative
	ref := strings.TrimSpace(narr.Reference)
	if ref == "" {
		ref = paymentID
	}
	return domain.DisputeCase{
		PaymentID:        paymentID,
		Reference:        ref,
		Amount:           narr.Amount,
		Currency:         narr.Currency,
		TransactionDate:  narr.TransactionDate,
		RawReason:        narr.ChargebackReason,
		Category:         c,
		Tenant:           n.Tenant,
		TenantID:         info.TenantID,
		CustomerName:     narr.CustomerName,
		CustomerGender:   narr.CustomerGender,
		Carrier:          narr.Carrier,
		OpeningStatement: narr.OpeningStatement,
		ClosingStatement: narr.ClosingStatement,
		KYC:              n.KYC,
	}
}

// write stores the document under its deterministic name. The file is written
// to a temporary name first so a reader never sees a partial document.
func (g *Generator) write(doc render.Document) (string, error) {
	if err := os.MkdirAll(g.settings.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(g.settings.OutputDir, ".pending-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create document file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := render.WritePDFAt(tmp, doc, g.nowFn()); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close document file: %w", err)
	}

	path := filepath.Join(g.settings.OutputDir, doc.FileName)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move document into place: %w", err)
	}
	return path, nil
}

func (g *Generator) publish(ctx context.Context, runID string, out Outcome, genErr error, logger *slog.Logger) {
	ev := events.Outcome{
		Type:       events.TypeGenerated,
		RunID:      runID,
		PaymentID:  out.PaymentID,
		Category:   string(out.Category),
		FileName:   out.FileName,
		Degraded:   out.DegradedTasks(),
		OccurredAt: g.nowFn().UTC(),
	}
	if genErr != nil {
		ev.Type = events.TypeFailed
		ev.Error = genErr.Error()
	}
	if err := g.deps.Publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		logger.Warn("publishing outcome event failed", "type", ev.Type, "error", err)
	}
}

// caseRun is the mutable state of one case. Evidence tasks write into opt and
// reports under mu.
type caseRun struct {
	paymentID string
	logger    *slog.Logger
	info      domain.PaymentInfo
	n         evidence.Normalized
	dispute   domain.DisputeCase
	plan      aggregate.Plan

	mu      sync.Mutex
	opt     aggregate.Optional
	reports []SlotReport
}

// note logs and keeps a non-ok result, returning the value and whether it is usable.
func note[T any](cr *caseRun, task string, res domain.Result[T]) (T, bool) {
	if !res.OK() {
		cr.report(task, res.Status, res.Reason)
	}
	return res.Get()
}

func (cr *caseRun) report(task string, status domain.Status, reason string) {
	cr.mu.Lock()
	cr.reports = append(cr.reports, SlotReport{Task: task, Status: status, Reason: reason})
	cr.mu.Unlock()

	level := slog.LevelWarn
	if status == domain.StatusFailed {
		level = slog.LevelError
	}
	cr.logger.Log(context.Background(), level, "evidence degraded",
		"slot", task,
		"status", status,
		"reason", reason,
	)
}

func (cr *caseRun) update(fn func(opt *aggregate.Optional)) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	fn(&cr.opt)
}

func (cr *caseRun) artifact(kind domain.ArtifactKind, path string) {
	cr.update(func(opt *aggregate.Optional) {
		if opt.Artifacts == nil {
			opt.Artifacts = make(map[domain.ArtifactKind]string)
		}
		opt.Artifacts[kind] = path
	})
}
