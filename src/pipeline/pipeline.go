// Package pipeline wires classification, enrichment, policy gating and
// delivery into the three host callbacks of a request.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"hbrelay/src/enricher"
	"hbrelay/src/gate"
	"hbrelay/src/hooks"
	"hbrelay/src/model"
	"hbrelay/src/notices"
	"hbrelay/src/settings"
	"hbrelay/src/severity"
	"hbrelay/src/sink"

	logger "github.com/sirupsen/logrus"
)

// DefaultReportingMask is E_ALL.
const DefaultReportingMask = 32767

// Outcome is what happened to one signal.
type Outcome string

const (
	OutcomeDelivered  Outcome = "delivered"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeFiltered   Outcome = "filtered"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeFailed     Outcome = "failed"
)

// Result is reported back for every handled signal.
type Result struct {
	Outcome  Outcome
	EventID  string
	NoticeID string
	Err      error
}

// FailureRecorder persists delivery failures for later inspection.
type FailureRecorder interface {
	Create(ctx context.Context, exc *model.Exception) error
}

// NoticePoster publishes admin-visible notices.
type NoticePoster interface {
	Post(severity notices.Severity, message string) uint64
}

// Pipeline handles the signals of one request or script run.
type Pipeline struct {
	ctx           context.Context
	store         settings.Store
	sink          sink.Sink
	policy        settings.Policy
	policyLoaded  bool
	ambient       enricher.Ambient
	mask          int
	platformMajor int
	failures      FailureRecorder
	notices       NoticePoster
	admin         bool
	action        func() string
	hostMask      func() (int, bool)

	mu      sync.Mutex
	seen    map[string]struct{}
	results []Result
}

type Option func(*Pipeline)

// WithPolicy uses p instead of loading it from the store.
func WithPolicy(p settings.Policy) Option {
	return func(pl *Pipeline) {
		pl.policy = p
		pl.policyLoaded = true
	}
}

func WithAmbient(a enricher.Ambient) Option {
	return func(pl *Pipeline) { pl.ambient = a }
}

// WithReportingMask sets the runtime's error_reporting() value.
func WithReportingMask(mask int) Option {
	return func(pl *Pipeline) { pl.mask = mask }
}

func WithPlatformMajor(major int) Option {
	return func(pl *Pipeline) { pl.platformMajor = major }
}

func WithFailureRecorder(r FailureRecorder) Option {
	return func(pl *Pipeline) { pl.failures = r }
}

// WithNotices posts delivery failures to board when admin is true.
func WithNotices(board NoticePoster, admin bool) Option {
	return func(pl *Pipeline) {
		pl.notices = board
		pl.admin = admin
	}
}

func WithContext(ctx context.Context) Option {
	return func(pl *Pipeline) { pl.ctx = ctx }
}

// New builds a pipeline. The policy is read from store once, here.
func New(store settings.Store, s sink.Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		ctx:           context.Background(),
		store:         store,
		sink:          sink.Safe(s),
		mask:          DefaultReportingMask,
		platformMajor: severity.UnsilenceablePlatformMajor,
		seen:          map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(p)
	}

	if !p.policyLoaded && store != nil {
		policy, err := safeLoadPolicy(p.ctx, store)
		if err != nil {
			logger.WithError(err).Error("[pipeline] failed to load policy")
		}
		p.policy = policy
		p.policyLoaded = true
	}
	return p
}

func safeLoadPolicy(ctx context.Context, store settings.Store) (policy settings.Policy, err error) {
	defer func() {
		if r := recover(); r != nil {
			policy = settings.FromValues(nil)
			err = fmt.Errorf("settings store panicked: %v", r)
		}
	}()
	return settings.LoadPolicy(ctx, store)
}

// Policy returns the snapshot this pipeline works with.
func (p *Pipeline) Policy() settings.Policy { return p.policy }

// Results returns the outcome of every signal handled so far.
func (p *Pipeline) Results() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Result(nil), p.results...)
}

// Register installs the pipeline's callbacks on host. This is the only
// place a pipeline is bound to a hook system.
func (p *Pipeline) Register(host hooks.Host) {
	p.action = host.CurrentAction
	p.hostMask = host.ReportingMask
	host.OnError(func(level model.Level, message, file string, line int) {
		p.HandleError(level, message, file, line)
	})
	host.OnException(func(class, message, file string, line int, ctx map[string]any) {
		p.HandleException(class, message, file, line, ctx)
	})
	host.OnShutdown(func(last *model.Signal) {
		p.HandleShutdown(last)
	})
}

// HandleError is the runtime error callback.
func (p *Pipeline) HandleError(level model.Level, message, file string, line int) Result {
	signal := model.Signal{
		Level:    level,
		Message:  message,
		Location: location(file, line),
		Origin:   model.OriginRuntimeError,
	}
	p.markSeen(signal)
	return p.handle(signal)
}

// HandleException is the uncaught exception callback.
func (p *Pipeline) HandleException(class, message, file string, line int, ctx map[string]any) Result {
	signal := model.Signal{
		Level:    model.LevelError,
		Message:  message,
		Location: location(file, line),
		Origin:   model.OriginUncaughtException,
		Class:    class,
		Context:  ctx,
	}
	p.markSeen(signal)
	return p.handle(signal)
}

// HandleShutdown is the termination callback. last is the runtime's last
// error, nil when there was none. Only fatal levels that no earlier
// handler saw are reported.
func (p *Pipeline) HandleShutdown(last *model.Signal) Result {
	if last == nil || !severity.IsShutdownFatal(last.Level) {
		return p.record(Result{Outcome: OutcomeIgnored})
	}

	signal := *last
	signal.Origin = model.OriginShutdownFatal
	if p.wasSeen(signal) {
		return p.record(Result{Outcome: OutcomeDuplicate})
	}
	p.markSeen(signal)
	return p.handle(signal)
}

func (p *Pipeline) handle(signal model.Signal) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("[pipeline] recovered while handling signal")
			res = p.record(Result{Outcome: OutcomeFailed, Err: fmt.Errorf("pipeline panic: %v", r)})
		}
	}()

	decision := severity.Classify(signal, p.reportingMask(), p.platformMajor)
	if !decision.Pass {
		return p.record(Result{Outcome: OutcomeSuppressed})
	}
	if !gate.ShouldForward(decision.Kind, p.policy) {
		return p.record(Result{Outcome: OutcomeFiltered})
	}

	ambient := p.ambient
	if p.action != nil {
		if action := p.action(); action != "" {
			ambient.Action = action
		}
	}
	ev := enricher.Build(signal, decision.Kind, p.policy, ambient)
	return p.record(p.deliver(ev))
}

// reportingMask is the mask in effect while the current callback runs: the
// host's, when it narrowed it for this signal, else the request's.
func (p *Pipeline) reportingMask() int {
	if p.hostMask != nil {
		if mask, ok := p.hostMask(); ok {
			return mask
		}
	}
	return p.mask
}

func (p *Pipeline) deliver(ev model.Event) Result {
	id, err := p.sink.Send(p.ctx, ev)
	if err != nil {
		p.reportFailure(ev, err)
		return Result{Outcome: OutcomeFailed, EventID: ev.ID, Err: err}
	}
	logger.WithFields(map[string]interface{}{
		"event_id":  ev.ID,
		"notice_id": id,
		"kind":      ev.Kind,
		"action":    ev.Action,
	}).Info("[pipeline] event delivered")
	return Result{Outcome: OutcomeDelivered, EventID: ev.ID, NoticeID: id}
}

func (p *Pipeline) reportFailure(ev model.Event, cause error) {
	logger.WithError(cause).WithFields(map[string]interface{}{
		"event_id": ev.ID,
		"class":    ev.Class,
		"kind":     ev.Kind,
	}).Error("[pipeline] delivery failed")

	if p.failures != nil {
		p.persistFailure(ev, cause)
	}
	if p.admin && p.notices != nil {
		p.notices.Post(notices.SeverityError, fmt.Sprintf("Honeybadger could not receive %s: %s", ev.Class, failureReason(cause)))
	}
}

// failureReason explains backend rejections in the notice API's terms.
func failureReason(cause error) string {
	var statusErr *sink.StatusError
	if errors.As(cause, &statusErr) {
		return statusErr.Reason()
	}
	return cause.Error()
}

func (p *Pipeline) persistFailure(ev model.Event, cause error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("[pipeline] failure recorder panicked")
		}
	}()

	exc := &model.Exception{
		EventID: ev.ID,
		Class:   ev.Class,
		Kind:    string(ev.Kind),
		Action:  ev.Action,
		Message: ev.Message,
		Failure: cause.Error(),
	}
	if ev.Location != nil {
		exc.Location = fmt.Sprintf("%s:%d", ev.Location.File, ev.Location.Line)
	}
	if raw, err := json.Marshal(ev.Context); err == nil {
		exc.Context = string(raw)
	}

	if err := p.failures.Create(p.ctx, exc); err != nil {
		logger.WithError(err).Error("[pipeline] failed to persist delivery failure")
	}
}

func (p *Pipeline) record(r Result) Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
	return r
}

func (p *Pipeline) markSeen(s model.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[s.Fingerprint()] = struct{}{}
}

func (p *Pipeline) wasSeen(s model.Signal) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.seen[s.Fingerprint()]
	return ok
}

func location(file string, line int) *model.Location {
	if file == "" && line == 0 {
		return nil
	}
	return &model.Location{File: file, Line: line}
}
