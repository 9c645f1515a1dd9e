package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"queuewatch/internal/intercept"
	"queuewatch/internal/logging"
	"queuewatch/internal/queue"
)

// Result summarizes a replay.
type Result struct {
	Entries int
	Failed  int
	Stats   intercept.Stats
}

// Replay issues every entry in archive through an interceptor feeding sink
// and waits for all inspections to finish. opts.Transport is replaced by the
// recorded responses; records are labelled queue.SourceReplay.
func Replay(ctx context.Context, archive *Archive, sink intercept.Sink, opts intercept.Options) (Result, error) {
	if archive == nil {
		return Result{}, errors.New("nil capture")
	}
	logger := logging.NewComponentLogger(opts.Logger, "replay")

	player := newPlayer(archive.Log.Entries)
	opts.Transport = player
	opts.TransportSource = queue.SourceReplay
	ic := intercept.New(sink, opts)
	client := ic.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	result := Result{Entries: len(archive.Log.Entries)}
	for idx, entry := range archive.Log.Entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		req, err := entry.Request.build(ctx)
		if err != nil {
			result.Failed++
			logger.Warn("skipping capture entry", logging.Int("entry", idx), logging.Error(err))
			continue
		}
		req.Header.Set(entryHeader, strconv.Itoa(idx))
		resp, err := client.Do(req)
		if err != nil {
			result.Failed++
			logger.Warn("capture entry failed", logging.Int("entry", idx), logging.Error(err))
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	ic.Wait()
	result.Stats = ic.Stats()
	logger.Info("capture replayed",
		logging.Int("entries", result.Entries),
		logging.Int("failed", result.Failed),
		logging.Int64("updates", result.Stats.Updates),
	)
	return result, nil
}

// entryHeader carries the archive index from the request to the player.
const entryHeader = "X-Queuewatch-Capture-Entry"

func (r Request) build(ctx context.Context) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if r.PostData != nil && r.PostData.Text != "" {
		body = strings.NewReader(r.PostData.Text)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, err
	}
	for _, h := range r.Headers {
		// pseudo headers from HTTP/2 captures are not valid field names
		if strings.HasPrefix(h.Name, ":") {
			continue
		}
		req.Header.Add(h.Name, h.Value)
	}
	return req, nil
}

// player is a RoundTripper that answers with recorded responses.
type player struct {
	entries []Entry
}

func newPlayer(entries []Entry) *player {
	return &player{entries: entries}
}

func (p *player) RoundTrip(req *http.Request) (*http.Response, error) {
	idx, err := strconv.Atoi(req.Header.Get(entryHeader))
	if err != nil || idx < 0 || idx >= len(p.entries) {
		return nil, fmt.Errorf("no recorded response for %s", req.URL)
	}
	recorded := p.entries[idx].Response

	body, err := recorded.Content.Body()
	if err != nil {
		return nil, err
	}
	header := make(http.Header, len(recorded.Headers))
	for _, h := range recorded.Headers {
		if strings.HasPrefix(h.Name, ":") || strings.EqualFold(h.Name, "Content-Length") {
			continue
		}
		header.Add(h.Name, h.Value)
	}
	if header.Get("Content-Type") == "" && recorded.Content.MimeType != "" {
		header.Set("Content-Type", recorded.Content.MimeType)
	}
	// content.text is stored decoded, so a recorded Content-Encoding no
	// longer describes the body.
	header.Del("Content-Encoding")

	status := recorded.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		Status:        strconv.Itoa(status) + " " + recorded.StatusText,
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

var _ http.RoundTripper = (*player)(nil)
