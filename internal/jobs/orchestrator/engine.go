// Package orchestrator drives a fixed, ordered list of stages over a shared working value.
// Stages run one at a time. A failing stage is recorded and the driver moves on; any
// stage can later be retried on its own.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

var ErrUnknownStage = errors.New("unknown stage")

type Stage[T any] struct {
	Name  string
	Label string
	Run   func(ctx context.Context, work *T) error
}

type Option[T any] func(*Engine[T])

// WithObserver receives a copy of a stage state on every transition.
func WithObserver[T any](fn func(StageState)) Option[T] {
	return func(e *Engine[T]) { e.observer = fn }
}

func WithClock[T any](now func() time.Time) Option[T] {
	return func(e *Engine[T]) { e.now = now }
}

type Engine[T any] struct {
	log      *logger.Logger
	stages   []Stage[T]
	work     *T
	observer func(StageState)
	tracer   trace.Tracer
	now      func() time.Time

	// runMu keeps at most one stage in flight.
	runMu  sync.Mutex
	mu     sync.RWMutex
	states []*StageState
	index  map[string]int
	group  singleflight.Group
}

func NewEngine[T any](work *T, stages []Stage[T], baseLog *logger.Logger, opts ...Option[T]) (*Engine[T], error) {
	if work == nil {
		return nil, fmt.Errorf("orchestrator: nil working value")
	}
	if err := validateStages(stages); err != nil {
		return nil, err
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	e := &Engine[T]{
		log:    baseLog.With("component", "StageEngine"),
		stages: append([]Stage[T]{}, stages...),
		work:   work,
		tracer: otel.Tracer("sitevisit/orchestrator"),
		now:    time.Now,
		index:  make(map[string]int, len(stages)),
	}
	for i, s := range stages {
		e.states = append(e.states, &StageState{ID: s.Name, Label: labelOr(s), Status: StagePending})
		e.index[s.Name] = i
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RunAll runs every stage that is not already done, in order. It does not stop at a
// failed stage. It reports whether every stage is done afterwards.
func (e *Engine[T]) RunAll(ctx context.Context) bool {
	for i := range e.stages {
		if e.status(i) == StageDone {
			continue
		}
		e.runShared(ctx, i)
	}
	return e.AllDone()
}

// Retry re-runs the named stage only. A stage that is already done is left alone.
// Concurrent retries of the same stage share one execution.
func (e *Engine[T]) Retry(ctx context.Context, name string) (StageState, error) {
	i, ok := e.index[name]
	if !ok {
		return StageState{}, fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
	if e.status(i) != StageDone {
		e.runShared(ctx, i)
	}
	return e.State(name)
}

func (e *Engine[T]) States() []StageState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]StageState, len(e.states))
	for i, st := range e.states {
		out[i] = st.copy()
	}
	return out
}

func (e *Engine[T]) State(name string) (StageState, error) {
	i, ok := e.index[name]
	if !ok {
		return StageState{}, fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.states[i].copy(), nil
}

func (e *Engine[T]) AllDone() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, st := range e.states {
		if st.Status != StageDone {
			return false
		}
	}
	return true
}

func (e *Engine[T]) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, st := range e.states {
		if st.Status == StageRunning {
			return true
		}
	}
	return false
}

func (e *Engine[T]) status(i int) StageStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.states[i].Status
}

func (e *Engine[T]) runShared(ctx context.Context, i int) {
	_, _, _ = e.group.Do(e.stages[i].Name, func() (any, error) {
		e.run(ctx, i)
		return nil, nil
	})
}

func (e *Engine[T]) run(ctx context.Context, i int) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	def := e.stages[i]
	e.mu.Lock()
	if e.states[i].Status == StageDone {
		e.mu.Unlock()
		return
	}
	markStarted(e.states[i], e.now().UTC())
	attempt := e.states[i].Attempts
	started := e.states[i].copy()
	e.mu.Unlock()
	e.notify(started)

	spanCtx, span := e.tracer.Start(ctx, "stage."+def.Name, trace.WithAttributes(
		attribute.String("stage.name", def.Name),
		attribute.Int("stage.attempt", attempt),
	))
	err := safeRun(spanCtx, def, e.work)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.Warn("stage failed", "stage", def.Name, "attempt", attempt, "error", err)
	} else {
		e.log.Debug("stage done", "stage", def.Name, "attempt", attempt)
	}
	span.End()

	e.mu.Lock()
	markFinished(e.states[i], e.now().UTC(), err)
	finished := e.states[i].copy()
	e.mu.Unlock()
	e.notify(finished)
}

func (e *Engine[T]) notify(st StageState) {
	if e.observer != nil {
		e.observer(st)
	}
}

func safeRun[T any](ctx context.Context, def Stage[T], work *T) (err error) {
	if def.Run == nil {
		return fmt.Errorf("stage %q: Run is nil", def.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %q panicked: %v", def.Name, r)
		}
	}()
	return def.Run(ctx, work)
}

func validateStages[T any](stages []Stage[T]) error {
	if len(stages) == 0 {
		return fmt.Errorf("orchestrator: no stages")
	}
	seen := map[string]bool{}
	for _, s := range stages {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("stage missing Name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate stage name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

func labelOr[T any](s Stage[T]) string {
	if strings.TrimSpace(s.Label) == "" {
		return s.Name
	}
	return s.Label
}
