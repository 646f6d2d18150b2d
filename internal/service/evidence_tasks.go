package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vanshika/chargeback/backend/internal/aggregate"
	"github.com/vanshika/chargeback/backend/internal/capture"
	"github.com/vanshika/chargeback/backend/internal/domain"
	"github.com/vanshika/chargeback/backend/internal/identity"
	"github.com/vanshika/chargeback/backend/internal/policy"
	"github.com/vanshika/chargeback/backend/internal/repository"
	"github.com/vanshika/chargeback/backend/internal/sessions"
	"github.com/vanshika/chargeback/backend/internal/shopify"
	"github.com/vanshika/chargeback/backend/internal/store"
)

// Task names used in logs, reports and events.
const (
	taskCredentials   = "shop_credentials"
	taskOrder         = "order"
	taskTracking      = "tracking"
	taskCard          = "card_details"
	taskAVS           = "avs"
	taskIdentity      = "identity"
	taskSession       = "session"
	taskPublicRecords = "public_records"
	taskLocation      = "location"
	taskLocationMap   = "location_map"
	taskReturnPolicy  = "return_policy"
)

// expected are collaborator errors meaning "no data" rather than a fault.
var expected = []error{
	store.ErrPaymentNotFound,
	store.ErrNoCredentials,
	shopify.ErrNoTransactions,
	shopify.ErrNoTracking,
	shopify.ErrOrderNotFound,
	identity.ErrNoMatch,
	repository.ErrPaymentNotFound,
	context.DeadlineExceeded,
}

// resultOf converts a collaborator return into a typed result.
func resultOf[T any](v T, err error) domain.Result[T] {
	if err == nil {
		return domain.OK(v)
	}
	for _, e := range expected {
		if errors.Is(err, e) {
			return domain.Degraded[T](err.Error())
		}
	}
	return domain.Failed[T](err)
}

type evidenceTask struct {
	name string
	fn   func(ctx context.Context)
}

// gather runs the planned fetches on the bounded pool. Each fetch gets its own
// timeout and only ever degrades its own slot.
func (g *Generator) gather(ctx context.Context, cr *caseRun) error {
	creds, haveCreds := g.credentials(ctx, cr)
	tasks := g.tasks(cr, creds, haveCreds)

	err := run(ctx, g.settings.Workers, len(tasks), func(idx int) error {
		tctx, cancel := context.WithTimeout(ctx, g.settings.Timeout)
		defer cancel()
		tasks[idx].fn(tctx)
		cr.logger.Debug("evidence task finished", "slot", tasks[idx].name)
		return nil
	})
	if err != nil {
		return err
	}

	if cr.plan.ReturnPolicy {
		g.returnPolicy(cr)
	}
	return nil
}

func (g *Generator) credentials(ctx context.Context, cr *caseRun) (domain.ShopCredentials, bool) {
	switch {
	case g.deps.Payments == nil:
		return note(cr, taskCredentials, domain.Degraded[domain.ShopCredentials]("payment store not configured"))
	case cr.info.TenantID == "":
		return note(cr, taskCredentials, domain.Degraded[domain.ShopCredentials]("payment has no tenant"))
	}
	tctx, cancel := context.WithTimeout(ctx, g.settings.Timeout)
	defer cancel()
	return note(cr, taskCredentials, resultOf(g.deps.Payments.ShopCredentials(tctx, cr.info.TenantID)))
}

func (g *Generator) tasks(cr *caseRun, creds domain.ShopCredentials, haveCreds bool) []evidenceTask {
	p := cr.plan
	var tasks []evidenceTask
	add := func(on bool, name string, fn func(ctx context.Context)) {
		if on {
			tasks = append(tasks, evidenceTask{name: name, fn: fn})
		}
	}

	add(p.OrderCapture, taskOrder, func(ctx context.Context) { g.orderScreenshot(ctx, cr, creds) })
	add(p.TrackingCapture, taskTracking, func(ctx context.Context) { g.tracking(ctx, cr, creds, haveCreds) })
	add(p.CardDetails || p.AVSDetails, taskCard, func(ctx context.Context) { g.cardEvidence(ctx, cr, creds, haveCreds) })
	add(p.IdentityScreenshot, taskIdentity, func(ctx context.Context) { g.identityScreenshot(ctx, cr) })
	add(p.SessionEvidence, taskSession, func(ctx context.Context) { g.sessionEvidence(ctx, cr) })
	add(p.PublicRecords, taskPublicRecords, func(ctx context.Context) { g.publicRecords(ctx, cr) })
	add(p.LocationAnalysis, taskLocation, func(ctx context.Context) { g.location(ctx, cr) })

	if p.KYCDownloads {
		kyc := cr.n.KYC
		for _, img := range []struct {
			url  string
			kind domain.ArtifactKind
		}{
			{kyc.IDCard, domain.ArtifactKYCIDCard},
			{kyc.Selfie, domain.ArtifactKYCSelfie},
			{kyc.Card, domain.ArtifactKYCCard},
		} {
			add(img.url != "", string(img.kind), func(ctx context.Context) {
				res := g.deps.Capturer.Download(ctx, string(img.kind)+"_"+cr.reference(), img.url)
				if path, ok := note(cr, string(img.kind), res); ok {
					cr.artifact(img.kind, path)
				}
			})
		}
	}
	return tasks
}

// reference is the order reference without the leading hash.
func (cr *caseRun) reference() string {
	return strings.ReplaceAll(cr.dispute.Reference, "#", "")
}

func (g *Generator) orderScreenshot(ctx context.Context, cr *caseRun, creds domain.ShopCredentials) {
	if creds.ShopName == "" {
		creds.ShopName = firstNonEmpty(cr.info.ShopName, cr.n.Tenant)
	}
	if cr.info.ExternalReference == "" {
		note(cr, taskOrder, domain.Degraded[string]("payment has no external order reference"))
		return
	}
	req := capture.PageRequest("order_"+cr.reference(), shopify.OrderAdminURL(creds, cr.info.ExternalReference))
	if path, ok := note(cr, taskOrder, g.deps.Capturer.Capture(ctx, req)); ok {
		cr.artifact(domain.ArtifactOrderScreenshot, path)
	}
}

func (g *Generator) tracking(ctx context.Context, cr *caseRun, creds domain.ShopCredentials, haveCreds bool) {
	if !g.shopReady(cr, taskTracking, haveCreds) {
		return
	}
	info, ok := note(cr, taskTracking, resultOf(g.deps.Orders.Tracking(ctx, creds, cr.reference())))
	if !ok {
		return
	}
	cr.update(func(opt *aggregate.Optional) { opt.Tracking = &info })
	if info.URL == "" {
		note(cr, taskTracking, domain.Degraded[string]("no tracking url for carrier "+info.Company))
		return
	}
	req := capture.PageRequest("tracking_"+cr.reference(), info.URL)
	if path, ok := note(cr, taskTracking, g.deps.Capturer.Capture(ctx, req)); ok {
		cr.artifact(domain.ArtifactTrackingScreenshot, path)
	}
}

func (g *Generator) shopReady(cr *caseRun, task string, haveCreds bool) bool {
	switch {
	case g.deps.Orders == nil:
		note(cr, task, domain.Degraded[struct{}]("order source not configured"))
		return false
	case !haveCreds:
		note(cr, task, domain.Degraded[struct{}]("no shop credentials"))
		return false
	case cr.info.ExternalReference == "":
		note(cr, task, domain.Degraded[struct{}]("payment has no external order reference"))
		return false
	}
	return true
}

// cardEvidence fetches the order transactions once and derives the card
// details card and, when requested, the AVS card from them. On fraud cases a
// full-match gateway AVS code requests the AVS card even if the narrative did not.
func (g *Generator) cardEvidence(ctx context.Context, cr *caseRun, creds domain.ShopCredentials, haveCreds bool) {
	wantAVS := cr.plan.AVSDetails
	finish := func() {
		if wantAVS {
			cr.update(func(opt *aggregate.Optional) {
				if _, ok := opt.Artifacts[domain.ArtifactAVSDetails]; !ok {
					if opt.Artifacts == nil {
						opt.Artifacts = make(map[domain.ArtifactKind]string)
					}
					opt.Artifacts[domain.ArtifactAVSDetails] = ""
				}
			})
		}
	}
	defer finish()

	if !g.shopReady(cr, taskCard, haveCreds) {
		return
	}
	txns, ok := note(cr, taskCard, resultOf(g.deps.Orders.Transactions(ctx, creds, cr.info.ExternalReference)))
	if !ok {
		return
	}

	if cr.plan.CardDetails {
		if card, found := shopify.ExtractCard(txns, cr.dispute.Reference); found {
			cr.update(func(opt *aggregate.Optional) { opt.Card = &card })
			g.captureCard(ctx, cr, taskCard, domain.ArtifactCardDetails, func(name string) (capture.Request, error) {
				return capture.CardRequest(name, card)
			})
		} else {
			note(cr, taskCard, domain.Degraded[struct{}]("no card transaction"))
		}
	}

	avs, found := shopify.ExtractAVS(txns, cr.dispute.Reference)
	if !found {
		if wantAVS {
			note(cr, taskAVS, domain.Degraded[struct{}]("no avs data on transaction"))
		}
		return
	}
	if !wantAVS && cr.dispute.Category == domain.CategoryFraud && aggregate.DetectAVSMatch("", avs.AVSCode) {
		wantAVS = true
	}
	if !wantAVS {
		return
	}
	cr.update(func(opt *aggregate.Optional) { opt.AVS = &avs })
	g.captureCard(ctx, cr, taskAVS, domain.ArtifactAVSDetails, func(name string) (capture.Request, error) {
		return capture.AVSRequest(name, avs)
	})
}

func (g *Generator) captureCard(ctx context.Context, cr *caseRun, task string, kind domain.ArtifactKind, build func(name string) (capture.Request, error)) {
	req, err := build(string(kind) + "_" + cr.reference())
	if err != nil {
		note(cr, task, domain.Failed[string](fmt.Errorf("build %s card: %w", kind, err)))
		return
	}
	if path, ok := note(cr, task, g.deps.Capturer.Capture(ctx, req)); ok {
		cr.artifact(kind, path)
	}
}

func (g *Generator) identityScreenshot(ctx context.Context, cr *caseRun) {
	if g.settings.IdentityPageURL == "" {
		note(cr, taskIdentity, domain.Degraded[string]("identity page not configured"))
		return
	}
	pageURL := capture.IdentityPageURL(g.settings.IdentityPageURL, cr.paymentID, cr.info.TenantID)
	req := capture.PageRequest("identity_"+cr.reference(), pageURL)
	if path, ok := note(cr, taskIdentity, g.deps.Capturer.Capture(ctx, req)); ok {
		cr.artifact(domain.ArtifactIdentityScreenshot, path)
	}
}

func (g *Generator) sessionEvidence(ctx context.Context, cr *caseRun) {
	if g.deps.Graph == nil {
		note(cr, taskSession, domain.Degraded[struct{}]("evidence graph not configured"))
		return
	}
	act, ok := note(cr, taskSession, resultOf(g.deps.Graph.SessionActivity(ctx, cr.paymentID)))
	if !ok {
		return
	}
	narrative := sessions.Build(act.Payment, act.Intel, act.Sessions).Narrative()
	cr.update(func(opt *aggregate.Optional) { opt.SessionNarrative = narrative })
}

func (g *Generator) publicRecords(ctx context.Context, cr *caseRun) {
	switch {
	case g.deps.Identity == nil:
		note(cr, taskPublicRecords, domain.Degraded[struct{}]("identity store not configured"))
		return
	case strings.TrimSpace(cr.info.PayerMobile) == "":
		note(cr, taskPublicRecords, domain.Degraded[struct{}]("payment has no payer phone"))
		return
	}
	rec, ok := note(cr, taskPublicRecords, resultOf(g.deps.Identity.Lookup(ctx, cr.info.PayerMobile)))
	if !ok {
		return
	}
	cr.update(func(opt *aggregate.Optional) { opt.Identity = &rec })
}

func (g *Generator) location(ctx context.Context, cr *caseRun) {
	if g.deps.Graph == nil {
		note(cr, taskLocation, domain.Degraded[struct{}]("evidence graph not configured"))
		return
	}
	points, ok := note(cr, taskLocation, resultOf(g.deps.Graph.GeoPoints(ctx, cr.paymentID)))
	if !ok {
		return
	}
	analysis := g.deps.Analyzer.Analyze(points)
	cr.update(func(opt *aggregate.Optional) { opt.Geo = &analysis })

	req, err := capture.MapRequest("location_"+cr.reference(), analysis)
	if err != nil {
		note(cr, taskLocationMap, domain.Degraded[string](err.Error()))
		return
	}
	if path, ok := note(cr, taskLocationMap, g.deps.Capturer.Capture(ctx, req)); ok {
		cr.artifact(domain.ArtifactLocationMap, path)
	}
}

// returnPolicy resolves the tenant policy. Unknown tenants and missing images
// fall back silently.
func (g *Generator) returnPolicy(cr *caseRun) {
	p := g.deps.Policies.Lookup(cr.n.Tenant)
	image := ""
	if g.settings.PolicyImageDir != "" {
		image = policy.ImagePath(g.settings.PolicyImageDir, cr.n.Tenant)
	}
	if image == "" {
		cr.logger.Debug("no return policy image", "slot", taskReturnPolicy, "tenant", cr.n.Tenant)
	}
	cr.update(func(opt *aggregate.Optional) {
		opt.Policy = &p
		opt.PolicyImage = image
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
