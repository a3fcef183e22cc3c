package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/koscakluka/ema-chat/core/events"
	"github.com/koscakluka/ema-chat/core/stream"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stream is a single turn request. Nothing is sent until Events is ranged over.
type Stream struct {
	client *Client
	kind   string
	model  string
	build  func(ctx context.Context) (*http.Request, error)
}

// Events sends the request and yields the events of the response.
//
// Errors wrapping stream.ErrMalformedLine are not terminal. Any other error
// ends the iteration: it is a transport failure (request, status, read or
// idle timeout).
func (s *Stream) Events(ctx context.Context) func(func(events.Event, error) bool) {
	requestToFirstEventTime := time.Time{}
	setRequestToFirstEventTime := func(span trace.Span) {
		if requestToFirstEventTime.IsZero() {
			return
		}
		span.SetAttributes(attribute.Float64("response.request_to_first_event_time", time.Since(requestToFirstEventTime).Seconds()))
		span.AddEvent("received first event")
		requestToFirstEventTime = time.Time{}
	}

	return func(yield func(events.Event, error) bool) {
		ctx, span := tracer.Start(ctx, "chat turn stream")
		defer span.End()
		span.SetAttributes(
			attribute.String("request.kind", s.kind),
			attribute.String("request.model", s.model),
		)

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(nil, err)
		}

		ctx, cancel := context.WithCancelCause(ctx)
		defer cancel(nil)

		req, err := s.build(ctx)
		if err != nil {
			fail(err)
			return
		}
		req.Header.Set("Accept", "text/event-stream")
		span.SetAttributes(attribute.String("request.url", req.URL.String()))

		requestToFirstEventTime = time.Now()
		span.AddEvent("request started")
		resp, err := s.client.httpClient.Do(req)
		if err != nil {
			fail(fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			if errorBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
				span.SetAttributes(attribute.String("response.error", string(errorBody)))
			}
			fail(fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status))
			return
		}

		var body io.Reader = resp.Body
		if s.client.idleTimeout > 0 {
			idle := newIdleReader(resp.Body, s.client.idleTimeout, func() { cancel(ErrStreamIdle) })
			defer idle.Stop()
			body = idle
		}

		received := 0
		defer func() { span.SetAttributes(attribute.Int("response.events", received)) }()
		for event, err := range stream.Events(ctx, body) {
			if errors.Is(err, stream.ErrMalformedLine) {
				logger.Warn("skipping malformed stream line", "error", err)
				span.AddEvent("malformed line")
				if !yield(nil, err) {
					return
				}
				continue
			} else if err != nil {
				if cause := context.Cause(ctx); errors.Is(cause, ErrStreamIdle) {
					err = fmt.Errorf("%w after %s: %w", ErrStreamIdle, s.client.idleTimeout, err)
				}
				fail(err)
				return
			}

			setRequestToFirstEventTime(span)
			received++
			if !yield(event, nil) {
				return
			}
		}
	}
}

// idleReader calls onIdle when no Read returns data for the timeout.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
}

func newIdleReader(r io.Reader, timeout time.Duration, onIdle func()) *idleReader {
	return &idleReader{r: r, timeout: timeout, timer: time.AfterFunc(timeout, onIdle)}
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

func (r *idleReader) Stop() {
	r.timer.Stop()
}
