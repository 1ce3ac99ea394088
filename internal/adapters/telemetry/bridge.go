package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/bild/internal/core/ports"
)

// errTaskFailed stands in for a failed span that carries no description.
var errTaskFailed = errors.New("task failed")

// Bridge is the span processor behind Setup. Every task span the scheduler
// opens under InstrumentationName becomes a start and a completion event on
// the renderer; spans from other tracers are ignored.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a Bridge feeding renderer. A nil renderer drops events.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

func (b *Bridge) taskSpan(s sdktrace.ReadOnlySpan) (string, bool) {
	if b.renderer == nil || s.InstrumentationScope().Name != InstrumentationName {
		return "", false
	}
	sc := s.SpanContext()
	if !sc.IsValid() {
		return "", false
	}
	return sc.SpanID().String(), true
}

// OnStart reports the task as started.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	id, ok := b.taskSpan(s)
	if !ok {
		return
	}

	var parentID string
	if psc := trace.SpanContextFromContext(parent); psc.IsValid() {
		parentID = psc.SpanID().String()
	}
	b.renderer.OnTaskStart(id, parentID, s.Name(), s.StartTime())
}

// OnEnd reports the task's outcome. An error status becomes the failure
// shown next to the task.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	id, ok := b.taskSpan(s)
	if !ok {
		return
	}

	var failure error
	if status := s.Status(); status.Code == codes.Error {
		failure = errTaskFailed
		if status.Description != "" {
			failure = errors.New(status.Description)
		}
	}
	b.renderer.OnTaskComplete(id, s.EndTime(), failure)
}

// ForceFlush is a no-op: events reach the renderer synchronously.
func (b *Bridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown stops the renderer so buffered output is printed before the
// build result.
func (b *Bridge) Shutdown(context.Context) error {
	if b.renderer == nil {
		return nil
	}
	return b.renderer.Stop()
}
