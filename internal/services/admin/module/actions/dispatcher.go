package actions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/avo/internal/platform/errors"
	"github.com/louisbranch/avo/internal/platform/requestctx"
	"github.com/louisbranch/avo/internal/platform/telemetry/metrics"
	"github.com/louisbranch/avo/internal/services/admin/action"
	"github.com/louisbranch/avo/internal/services/admin/httpx"
	"github.com/louisbranch/avo/internal/services/admin/requestmeta"
	"github.com/louisbranch/avo/internal/services/admin/resource"
	"github.com/louisbranch/avo/internal/services/admin/storage"
	"github.com/louisbranch/avo/internal/services/admin/templates"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Resources looks up mounted resources by name.
type Resources interface {
	Lookup(name string) (resource.Resource, error)
}

// PageFunc builds the layout context for a request.
type PageFunc func(w http.ResponseWriter, r *http.Request) templates.PageContext

// Config wires a Dispatcher.
type Config struct {
	Registry  *action.Registry
	Resources Resources
	Decrypter action.Decrypter
	Pages     PageFunc
	// Audit is optional.
	Audit   storage.ActionRunStore
	Metrics *metrics.Recorder
	Logger  *zap.Logger
	Tracer  trace.Tracer
	Scheme  requestmeta.SchemePolicy
	// RunTimeout bounds one action run; zero means no extra bound.
	RunTimeout time.Duration
}

// Dispatcher implements Service.
type Dispatcher struct {
	registry   *action.Registry
	resources  Resources
	decrypter  action.Decrypter
	pages      PageFunc
	audit      storage.ActionRunStore
	metrics    *metrics.Recorder
	logger     *zap.Logger
	tracer     trace.Tracer
	scheme     requestmeta.SchemePolicy
	runTimeout time.Duration
	now        func() time.Time
}

// NewDispatcher builds a dispatcher, filling optional collaborators with
// no-op implementations.
func NewDispatcher(cfg Config) *Dispatcher {
	d := &Dispatcher{
		registry:   cfg.Registry,
		resources:  cfg.Resources,
		decrypter:  cfg.Decrypter,
		pages:      cfg.Pages,
		audit:      cfg.Audit,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		tracer:     cfg.Tracer,
		scheme:     cfg.Scheme,
		runTimeout: cfg.RunTimeout,
		now:        time.Now,
	}
	if d.registry == nil {
		d.registry = action.NewRegistry()
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.tracer == nil {
		d.tracer = noop.NewTracerProvider().Tracer("actions")
	}
	if d.pages == nil {
		d.pages = func(http.ResponseWriter, *http.Request) templates.PageContext {
			return templates.PageContext{}
		}
	}
	return d
}

// target is a resolved (resource, action) pair for one request.
type target struct {
	resource resource.Resource
	name     string
	id       string
	factory  action.Factory
}

func (d *Dispatcher) resolve(resourceName string, actionID string) (target, error) {
	if d.resources == nil {
		return target{}, apperrors.New(apperrors.CodeResourceNotFound, "no resources mounted")
	}
	res, err := d.resources.Lookup(resourceName)
	if err != nil {
		return target{}, err
	}
	factory, name, err := d.registry.Resolve(actionID)
	if err != nil {
		return target{}, err
	}
	if !d.registry.Attached(res.Name(), name) {
		return target{}, apperrors.WithMetadata(apperrors.CodeActionNotOnResource,
			name+" is not available on "+res.Name(),
			map[string]string{"resource": res.Name(), "action": name})
	}
	return target{resource: res, name: name, id: action.Identifier(name), factory: factory}, nil
}

// HandleActionShow renders the form for an action without running it.
func (d *Dispatcher) HandleActionShow(w http.ResponseWriter, r *http.Request, resourceName string, actionID string) {
	page := d.pages(w, r)
	tgt, err := d.resolve(resourceName, actionID)
	if err != nil {
		httpx.WriteError(w, r, d.logger, page.Loc, err)
		return
	}
	ctx := r.Context()
	user := currentUser(ctx)
	query := r.URL.Query()

	var record *action.Record
	ids := selectedIDs(query["ids"])
	if recordID := strings.TrimSpace(query.Get("id")); recordID != "" {
		found, err := tgt.resource.FindByID(ctx, recordID)
		if err != nil {
			httpx.WriteError(w, r, d.logger, page.Loc, err)
			return
		}
		record = &found
		ids = []string{found.ID}
	}
	if _, err := tgt.resource.Hydrate(ctx, action.Hydration{View: action.ViewNew, User: user, Record: record}); err != nil {
		httpx.WriteError(w, r, d.logger, page.Loc, err)
		return
	}

	act := tgt.factory(action.Context{Resource: tgt.resource, Record: record, User: user, View: action.ViewNew, Loc: page.Loc})
	def := act.Definition()
	values := def.FieldDefaults()
	for key, value := range act.Defaults(ctx) {
		values[key] = value
	}

	selectedQuery := ""
	if query.Get("all") == "1" {
		selectedQuery = strings.TrimSpace(query.Get("query"))
	}
	view := d.formView(page, tgt, def, values, strings.Join(ids, ","), selectedQuery, len(ids))
	d.renderForm(w, r, page, view, http.StatusOK)
}

// HandleActionRun executes an action and emits its outcome.
func (d *Dispatcher) HandleActionRun(w http.ResponseWriter, r *http.Request, resourceName string, actionID string) {
	page := d.pages(w, r)
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, r, d.logger, page.Loc, apperrors.Wrap(apperrors.CodeInvalidForm, "parse action form", err))
		return
	}
	if err := checkFormIdentity(r, resourceName, actionID); err != nil {
		httpx.WriteError(w, r, d.logger, page.Loc, err)
		return
	}
	tgt, err := d.resolve(resourceName, actionID)
	if err != nil {
		httpx.WriteError(w, r, d.logger, page.Loc, err)
		return
	}

	start := d.now()
	ctx := r.Context()
	if d.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.runTimeout)
		defer cancel()
	}
	user := currentUser(ctx)
	submitted := FormFields(r)

	act := tgt.factory(action.Context{Resource: tgt.resource, User: user, View: action.ViewIndex, Loc: page.Loc})
	def := act.Definition()

	ctx, span := d.tracer.Start(ctx, "action.handle", trace.WithAttributes(
		attribute.String("avo.action", tgt.name),
		attribute.String("avo.resource", tgt.resource.Name()),
		attribute.Bool("avo.standalone", def.Standalone),
	))
	defer span.End()

	inv, err := action.BuildInvocation(ctx, action.BuildParams{
		Fields:     submitted,
		User:       user,
		Resource:   tgt.resource,
		Standalone: def.Standalone,
		Decrypter:  d.decrypter,
	})
	if err != nil {
		d.fail(ctx, w, r, page, span, tgt, user, 0, start, err)
		return
	}
	span.SetAttributes(attribute.Int("avo.records", len(inv.Records)))

	resp, err := act.Handle(ctx, inv)
	if err != nil {
		d.fail(ctx, w, r, page, span, tgt, user, len(inv.Records), start, err)
		return
	}

	defaultMessage := action.Info(templates.T(page.Loc, action.DefaultMessageKey))
	lc := inv.LocationContext(requestmeta.SafeReferer(r, d.scheme))
	outcome := action.Interpret(resp, lc, defaultMessage)
	span.SetAttributes(attribute.String("avo.outcome", string(outcome.Kind)))

	switch outcome.Kind {
	case action.OutcomeValidationFailure:
		values := def.FieldDefaults()
		for key, value := range inv.Fields {
			values[key] = value
		}
		view := d.formView(page, tgt, def, values,
			submitted[action.FieldResourceIDs], submitted[action.FieldSelectedQuery], len(inv.Records))
		view.Error = outcome.FormError
		d.renderForm(w, r, page, view, http.StatusUnprocessableEntity)
	case action.OutcomeDownload:
		if err := d.sendDownload(w, r, outcome.Download); err != nil {
			d.fail(ctx, w, r, page, span, tgt, user, len(inv.Records), start, err)
			return
		}
	default:
		d.flashAndRedirect(w, r, outcome)
	}
	d.finish(ctx, tgt, user, len(inv.Records), string(outcome.Kind), start)
}

func (d *Dispatcher) fail(ctx context.Context, w http.ResponseWriter, r *http.Request, page templates.PageContext, span trace.Span, tgt target, user action.User, records int, start time.Time, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	d.finish(ctx, tgt, user, records, "error", start)
	httpx.WriteError(w, r, d.logger, page.Loc, err)
}

// finish records metrics, the audit row and a log line for one run.
func (d *Dispatcher) finish(ctx context.Context, tgt target, user action.User, records int, outcome string, start time.Time) {
	elapsed := d.now().Sub(start)
	d.metrics.ObserveAction(tgt.name, outcome, elapsed)
	fields := []zap.Field{
		zap.String("action", tgt.name),
		zap.String("resource", tgt.resource.Name()),
		zap.String("user_id", user.ID),
		zap.Int("records", records),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
		zap.String("request_id", requestctx.RequestIDFromContext(ctx)),
	}
	if outcome == "error" {
		d.logger.Warn("action failed", fields...)
	} else {
		d.logger.Info("action ran", fields...)
	}
	if d.audit == nil {
		return
	}
	// Audit failures are logged only.
	err := d.audit.RecordActionRun(context.WithoutCancel(ctx), storage.ActionRun{
		Action:   tgt.name,
		Resource: tgt.resource.Name(),
		UserID:   user.ID,
		Records:  records,
		Outcome:  outcome,
	})
	if err != nil {
		d.logger.Error("record action run", zap.String("action", tgt.name), zap.Error(err))
	}
}

func (d *Dispatcher) renderForm(w http.ResponseWriter, r *http.Request, page templates.PageContext, view templates.ActionFormView, status int) {
	var c templ.Component
	if httpx.IsHTMXRequest(r) {
		c = templates.ActionForm(page, view)
	} else {
		c = templates.ActionFormPage(page, view)
	}
	templ.Handler(c, templ.WithStatus(status)).ServeHTTP(w, r)
}

func currentUser(ctx context.Context) action.User {
	identity, ok := requestctx.IdentityFromContext(ctx)
	if !ok {
		return action.User{}
	}
	return action.User{
		ID:    identity.UserID,
		Email: identity.Email,
		Name:  identity.Name,
		Roles: identity.Roles,
	}
}

func selectedIDs(values []string) []string {
	var ids []string
	for _, value := range values {
		ids = append(ids, action.SplitIDs(value)...)
	}
	return ids
}

var _ Service = (*Dispatcher)(nil)
