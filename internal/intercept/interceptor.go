package intercept

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"queuewatch/internal/logging"
	"queuewatch/internal/queue"
	"queuewatch/internal/shape"
)

// DefaultMaxBodyBytes bounds the inspection copy of a single response.
const DefaultMaxBodyBytes int64 = 4 << 20

// Sink receives candidate arrays that passed the payload predicate.
type Sink interface {
	IngestFrom(source queue.Source, candidates []any) queue.IngestResult
}

// Options configures an Interceptor. Zero values select defaults.
type Options struct {
	// Transport is the original round tripper requests are delegated to.
	Transport http.RoundTripper
	// Unmarshal is the original JSON decode primitive.
	Unmarshal func(data []byte, v any) error
	// Matcher decides which URLs are always parsed.
	Matcher shape.Matcher
	// MaxBodyBytes bounds the inspection copy; larger bodies pass through
	// uninspected.
	MaxBodyBytes int64
	// DecodeContentEncoding decodes gzip/deflate/zstd bodies on the copy.
	DecodeContentEncoding bool
	// TransportSource labels records that arrive through Transport. It
	// defaults to queue.SourceTransport.
	TransportSource queue.Source
	Logger          *slog.Logger
}

// Interceptor wraps network primitives and forwards detected queue data to
// its sink.
type Interceptor struct {
	sink      Sink
	base      http.RoundTripper
	client    *http.Client
	unmarshal func([]byte, any) error
	matcher   shape.Matcher
	maxBody   int64
	decodeCE  bool
	rtSource  queue.Source
	logger    *slog.Logger

	stats    counters
	inflight sync.WaitGroup
}

// New builds an Interceptor around sink.
func New(sink Sink, opts Options) *Interceptor {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	unmarshal := opts.Unmarshal
	if unmarshal == nil {
		unmarshal = json.Unmarshal
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	rtSource := opts.TransportSource
	if rtSource == queue.SourceUnknown {
		rtSource = queue.SourceTransport
	}
	return &Interceptor{
		sink:      sink,
		base:      base,
		client:    &http.Client{Transport: base},
		unmarshal: unmarshal,
		matcher:   opts.Matcher,
		maxBody:   maxBody,
		decodeCE:  opts.DecodeContentEncoding,
		rtSource:  rtSource,
		logger:    logging.NewComponentLogger(opts.Logger, "intercept"),
	}
}

// Transport returns the promise-style entry point.
func (i *Interceptor) Transport() http.RoundTripper {
	return &transport{i: i}
}

// Client returns an http.Client whose transport is intercepted.
func (i *Interceptor) Client() *http.Client {
	return &http.Client{Transport: i.Transport()}
}

// Wait blocks until every inspection started so far has finished.
func (i *Interceptor) Wait() {
	i.inflight.Wait()
}

// Stats returns a snapshot of the outcome counters.
func (i *Interceptor) Stats() Stats {
	return i.stats.snapshot()
}

type transport struct {
	i *Interceptor
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.i.base.RoundTrip(req)
	if err != nil || resp == nil {
		return resp, err
	}
	t.i.observe(req.Context(), t.i.rtSource, requestURL(req), resp)
	return resp, nil
}

// Callbacks receive the result of Go. OnLoad owns the response and must close
// its body; when OnLoad is nil the body is closed for the caller.
type Callbacks struct {
	OnLoad  func(resp *http.Response)
	OnError func(err error)
}

// Go issues req on a new goroutine through the original transport and
// reports the result through cb. Redirects are followed like http.Client.
func (i *Interceptor) Go(req *http.Request, cb Callbacks) {
	go func() {
		resp, err := i.client.Do(req)
		if err != nil {
			if cb.OnError != nil {
				cb.OnError(err)
			}
			return
		}
		url := requestURL(req)
		if resp.Request != nil {
			url = requestURL(resp.Request)
		}
		i.observe(req.Context(), queue.SourceCallback, url, resp)
		if cb.OnLoad == nil {
			resp.Body.Close()
			return
		}
		cb.OnLoad(resp)
	}()
}

// Unmarshal calls the original decode primitive and returns its result
// untouched. On success the same bytes are inspected on another goroutine.
func (i *Interceptor) Unmarshal(data []byte, v any) error {
	if err := i.unmarshal(data, v); err != nil {
		return err
	}
	dup := append([]byte(nil), data...)
	i.inflight.Add(1)
	go func() {
		defer i.inflight.Done()
		i.finish(context.Background(), exchange{
			id:     uuid.NewString(),
			source: queue.SourceDecode,
		}, i.inspect(queue.SourceDecode, dup))
	}()
	return nil
}

type exchange struct {
	id     string
	source queue.Source
	url    string
}

// observe decides eligibility and, when eligible, swaps resp.Body for a tee.
// It never fails from the caller's point of view.
func (i *Interceptor) observe(ctx context.Context, source queue.Source, url string, resp *http.Response) {
	ex := exchange{id: uuid.NewString(), source: source, url: url}
	defer func() {
		if r := recover(); r != nil {
			i.finish(ctx, ex, failure(outcomeInterceptionFailure, panicError(r)))
		}
	}()

	if resp.Body == nil || resp.Body == http.NoBody {
		i.finish(ctx, ex, outcome{kind: outcomeSkipped})
		return
	}
	// Upgraded connections hand the caller a read-write stream; wrapping it
	// would hide io.Writer from httputil.ReverseProxy.
	if _, writable := resp.Body.(io.Writer); writable || resp.StatusCode == http.StatusSwitchingProtocols {
		i.finish(ctx, ex, outcome{kind: outcomeSkipped})
		return
	}
	contentType := resp.Header.Get("Content-Type")
	if !i.matcher.LooksLikeQueueURL(url) && !strings.Contains(strings.ToLower(contentType), "json") {
		i.finish(ctx, ex, outcome{kind: outcomeSkipped})
		return
	}

	encoding := ""
	if i.decodeCE && !resp.Uncompressed {
		encoding = resp.Header.Get("Content-Encoding")
	}

	i.inflight.Add(1)
	resp.Body = newBodyTee(resp.Body, i.maxBody, func(dup []byte, overflow bool, readErr error) {
		defer i.inflight.Done()
		i.finish(ctx, ex, i.inspectBody(source, dup, overflow, readErr, encoding))
	})
}

func (i *Interceptor) inspectBody(source queue.Source, body []byte, overflow bool, readErr error, encoding string) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = failure(outcomeInterceptionFailure, panicError(r))
		}
	}()
	if readErr != nil {
		return failure(outcomeInterceptionFailure, readErr)
	}
	if overflow {
		return outcome{kind: outcomeTooLarge}
	}
	if encoding != "" {
		decoded, err := decodeContent(encoding, body, i.maxBody)
		if err != nil {
			return failure(outcomeInterceptionFailure, err)
		}
		body = decoded
	}
	return i.inspect(source, body)
}

// inspect parses body and forwards qualifying candidates to the sink.
func (i *Interceptor) inspect(source queue.Source, body []byte) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = failure(outcomeInterceptionFailure, panicError(r))
		}
	}()
	value, err := shape.Decode(body)
	if err != nil {
		return failure(outcomeParseFailure, err)
	}
	if !shape.LooksLikeQueuePayload(value) {
		return outcome{kind: outcomeShapeMismatch}
	}
	candidates := shape.Candidates(value)
	if i.sink == nil {
		return outcome{kind: outcomeNoRecords, candidates: len(candidates)}
	}
	res := i.sink.IngestFrom(source, candidates)
	if !res.DidUpdate {
		return outcome{kind: outcomeNoRecords, candidates: len(candidates)}
	}
	return outcome{kind: outcomeUpdated, candidates: len(candidates), accepted: len(res.Accepted)}
}

func (i *Interceptor) finish(ctx context.Context, ex exchange, out outcome) {
	i.stats.record(out)
	if out.kind == outcomeSkipped {
		return
	}
	logger := i.logger.With(
		logging.String(logging.FieldCorrelationID, ex.id),
		logging.String("source", string(ex.source)),
	)
	if ex.url != "" {
		logger = logger.With(logging.String("url", ex.url))
	}
	if out.kind == outcomeUpdated {
		logger.InfoContext(ctx, fmt.Sprintf("updated %d queue item(s)", out.accepted),
			logging.Int("candidates", out.candidates),
			logging.Int("accepted", out.accepted),
		)
		return
	}
	attrs := []any{logging.String("outcome", string(out.kind))}
	if out.err != nil {
		attrs = append(attrs, logging.Error(out.err))
	}
	logger.DebugContext(ctx, "response inspected", attrs...)
}

func requestURL(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	return req.URL.String()
}
