package script

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jacoelho/chibi/internal/capture"
	"github.com/jacoelho/chibi/internal/lifecycle"
	"github.com/jacoelho/chibi/internal/nodeset"
	"github.com/jacoelho/chibi/internal/output"
	"github.com/jacoelho/chibi/internal/predicate"
	"github.com/jacoelho/chibi/internal/transport"
	"go.uber.org/zap"
)

// Runner executes steps against one engine. Steps run immediately, on
// ready or on loaded; ajax responses are handled on the runner's loop until
// every request has completed.
type Runner struct {
	engine        *nodeset.Engine
	loop          *lifecycle.Loop
	client        *transport.Client
	logger        *zap.Logger
	evaluator     *predicate.Evaluator
	transportOpts []transport.Option

	summary *output.Summary
	heads   []int
	chains  map[int]*nodeset.Selection
	pending []*pendingCall
}

type pendingCall struct {
	call     *transport.Call
	builder  *output.RecordBuilder
	recorded bool
}

func (p *pendingCall) record(s *output.Summary) {
	s.Add(p.builder)
	p.recorded = true
}

type Option func(*Runner)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTransportOptions configures the client used by ajax steps.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(r *Runner) {
		r.transportOpts = append(r.transportOpts, opts...)
	}
}

func New(engine *nodeset.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:    engine,
		loop:      lifecycle.NewLoop(),
		logger:    zap.NewNop(),
		evaluator: predicate.NewEvaluator(),
	}
	for _, opt := range opts {
		opt(r)
	}

	clientOpts := append([]transport.Option{transport.WithLogger(r.logger)}, r.transportOpts...)
	clientOpts = append(clientOpts, transport.WithDispatcher(r.loop))
	r.client = transport.New(clientOpts...)
	return r
}

// Run validates and executes steps. The returned error covers invalid
// scripts only; step failures are recorded in the summary.
func (r *Runner) Run(ctx context.Context, steps []Step) (*output.Summary, error) {
	if err := Validate(steps); err != nil {
		return nil, err
	}

	start := time.Now()
	r.summary = output.NewSummary(len(steps))
	r.heads = chainHeads(steps)
	r.chains = make(map[int]*nodeset.Selection)
	r.pending = nil

	lc := r.engine.Lifecycle()
	for index, step := range steps {
		run := func() { r.execute(ctx, index, step) }

		switch Phase(step.On) {
		case PhaseImmediate:
			run()
		case PhaseReady:
			lc.Ready(run)
		case PhaseLoaded:
			lc.Loaded(run)
		}
	}

	lc.FireReady()
	lc.FireLoaded()

	r.wait(ctx)
	r.summary.SetTotalDuration(time.Since(start))
	return r.summary, nil
}

func chainHeads(steps []Step) []int {
	heads := make([]int, len(steps))
	head := 0
	for index, step := range steps {
		if step.startsChain() {
			head = index
		}
		heads[index] = head
	}
	return heads
}

// wait runs the loop until every request has been handled. Requests still
// open when ctx ends, and handlers that panicked, are recorded as failures.
func (r *Runner) wait(ctx context.Context) {
	for i, p := range r.pending {
		if err := r.loop.RunUntil(ctx, p.call.Done()); err != nil {
			for _, rest := range r.pending[i:] {
				if !rest.recorded {
					rest.builder.WithError(fmt.Errorf("%w: not completed: %v", transport.ErrRequest, err))
					rest.record(r.summary)
				}
			}
			return
		}

		if !p.recorded {
			_, herr := p.call.Wait(ctx)
			p.builder.WithError(herr)
			p.record(r.summary)
		}
	}
}

func (r *Runner) selection(index int, step Step) *nodeset.Selection {
	head := r.heads[index]
	if index == head {
		var sel *nodeset.Selection
		if step.Data != nil {
			sel = r.engine.Query(*step.Data)
		} else {
			sel = r.engine.Query(step.Query)
		}
		r.chains[head] = sel
	}

	if step.Find != "" {
		narrowed, _ := r.chains[head].Find(nodeset.Filter(step.Find))
		r.chains[head] = narrowed
	}
	return r.chains[head]
}

func (r *Runner) execute(ctx context.Context, index int, step Step) {
	op := Op(strings.TrimSpace(step.Op))
	builder := output.NewRecordBuilder(index+1, string(op)).
		WithPhase(step.On).
		WithQuery(step.Query)

	sel := r.selection(index, step)
	r.logger.Debug("step",
		zap.Int("step", index+1),
		zap.String("op", string(op)),
		zap.Int("nodes", sel.Len()))

	if op == OpAjax {
		r.ajax(ctx, step, sel, builder)
		return
	}

	value, read, err := r.apply(ctx, op, step, sel)
	if err != nil {
		r.summary.Add(builder.WithError(err))
		return
	}
	if read {
		builder.WithValue(value)
	}
	if err := r.expect(step, value, func(name string) (any, bool) { return r.capture(ctx, name) }); err != nil {
		builder.WithError(err)
	}
	r.summary.Add(builder)
}

// apply runs one non-ajax op and reports the read value, if any.
func (r *Runner) apply(ctx context.Context, op Op, step Step, sel *nodeset.Selection) (any, bool, error) {
	var values []string
	if step.Writes() {
		var err error
		if values, err = r.writeValues(ctx, step); err != nil {
			return nil, false, err
		}
	}
	first := ""
	if len(values) > 0 {
		first = values[0]
	}

	switch op {
	case OpHide:
		sel.Hide()
	case OpShow:
		sel.Show()
	case OpToggle:
		sel.Toggle()
	case OpRemove:
		sel.Remove()
	case OpFind:
		return sel.Len(), true, nil
	case OpSerialize:
		return sel.Serialize(), true, nil
	case OpCSS:
		if !step.Writes() {
			return sel.CSS(step.Name).Interface(), true, nil
		}
		sel.SetCSS(step.Name, first)
	case OpClass:
		if !step.Writes() {
			return sel.Class().Interface(), true, nil
		}
		sel.SetClass(strings.Join(values, " "), nodeset.ClassAction(step.Action))
	case OpHTML:
		switch {
		case !step.Writes():
			return sel.HTML().Interface(), true, nil
		case step.Location != "":
			sel.InsertHTML(first, nodeset.Location(step.Location))
		default:
			sel.SetHTML(first)
		}
	case OpAttr:
		if !step.Writes() {
			return sel.Attr(step.Name).Interface(), true, nil
		}
		sel.SetAttr(step.Name, first)
	case OpVal:
		if !step.Writes() {
			return sel.Val().Interface(), true, nil
		}
		sel.SetVal(values...)
	case OpAjax:
		return nil, false, fmt.Errorf("%w: ajax is asynchronous", ErrScript)
	}
	return nil, false, nil
}

// writeValues returns the step's literal values or the capture named by from.
func (r *Runner) writeValues(ctx context.Context, step Step) ([]string, error) {
	if step.From == "" {
		return step.Value.Items, nil
	}

	captured, ok := r.capture(ctx, step.From)
	if !ok {
		return nil, fmt.Errorf("%w: capture %q is not set", ErrScript, step.From)
	}
	switch v := predicate.Normalize(captured).(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(predicate.Normalize(item)))
		}
		return out, nil
	}
	return []string{fmt.Sprint(captured)}, nil
}

func (r *Runner) captured(name string) (any, bool) {
	v, ok := r.summary.Captures[name]
	return v, ok
}

// capture looks up a captured value. A name not yet captured while
// requests are open waits for those requests first.
func (r *Runner) capture(ctx context.Context, name string) (any, bool) {
	if v, ok := r.captured(name); ok {
		return v, true
	}
	if len(r.pending) == 0 {
		return nil, false
	}
	r.wait(ctx)
	return r.captured(name)
}

func (r *Runner) expect(step Step, actual any, lookup func(string) (any, bool)) error {
	if step.Expect == nil {
		return nil
	}

	if step.Expect.Capture != "" {
		captured, ok := lookup(step.Expect.Capture)
		if !ok {
			return fmt.Errorf("%w: capture %q is not set", ErrExpectation, step.Expect.Capture)
		}
		actual = captured
	}

	expr, err := step.Expect.expr()
	if err != nil {
		return err
	}
	ok, err := r.evaluator.Evaluate(expr, actual)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExpectation, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s, got %s", ErrExpectation, describe(expr), describeValue(actual))
	}
	return nil
}

func describe(expr predicate.Expr) string {
	if !expr.HasValue {
		return string(expr.Op)
	}
	return string(expr.Op) + " " + describeValue(expr.Value)
}

func describeValue(v any) string {
	switch normalized := predicate.Normalize(v).(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", normalized)
	default:
		return fmt.Sprintf("%v", normalized)
	}
}

func (r *Runner) ajax(ctx context.Context, step Step, sel *nodeset.Selection, builder *output.RecordBuilder) {
	req := transport.Request{
		URL:     step.Request.URL,
		Method:  step.Request.Method,
		NoCache: step.Request.NoCache,
	}

	p := &pendingCall{builder: builder}
	p.call = sel.Ajax(ctx, r.client, req, func(resp transport.Response) error {
		return r.onResponse(step, resp, p)
	})
	r.pending = append(r.pending, p)
}

// onResponse runs on the loop. A failed extraction is returned so the
// transport reports it.
func (r *Runner) onResponse(step Step, resp transport.Response, p *pendingCall) error {
	r.summary.AddRequest()
	builder := p.builder

	if !resp.OK() {
		builder.WithError(resp.Err)
		p.record(r.summary)
		return nil
	}

	if target := step.Request.Target; target != "" {
		r.engine.Query(target).SetHTML(resp.Text())
	}

	if err := r.extract(step.Request.Extract, resp.Body); err != nil {
		builder.WithError(err)
		p.record(r.summary)
		return err
	}

	body := resp.Text()
	builder.WithValue(body)
	// Handlers run on the loop, so captures are read without waiting.
	if err := r.expect(step, body, r.captured); err != nil {
		builder.WithError(err)
	}
	p.record(r.summary)
	return nil
}

func (r *Runner) extract(extracts []Extract, body []byte) error {
	var (
		data    any
		decoded bool
	)

	for _, extract := range extracts {
		if extract.Regex != "" {
			value, err := capture.Regex(body, extract.Regex, extract.Group)
			if err != nil {
				return fmt.Errorf("extract %q: %w", extract.Name, err)
			}
			r.summary.Captures[extract.Name] = value
			continue
		}

		if !decoded {
			var err error
			if data, err = capture.ParseJSONBody(body); err != nil {
				return fmt.Errorf("extract %q: %w", extract.Name, err)
			}
			decoded = true
		}
		value, err := capture.JSONPath(data, extract.Path)
		if err != nil {
			return fmt.Errorf("extract %q: %w", extract.Name, err)
		}
		r.summary.Captures[extract.Name] = value
	}
	return nil
}
