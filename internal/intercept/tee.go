package intercept

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

var (
	errBodyClosed          = errors.New("http: read on closed response body")
	errInspectionAbandoned = errors.New("response body closed by caller before inspection finished")
)

const (
	pumpChunk = 32 << 10
	// teeWindow bounds how far the pump reads ahead of the caller.
	teeWindow = 4 * pumpChunk
)

// closeGrace is how long the pump may keep draining for the inspection copy
// after the caller closes the body. The source is closed when it expires.
var closeGrace = 250 * time.Millisecond

// bodyTee duplicates a response body. A pump goroutine reads src once; every
// chunk is queued for the caller and appended to a bounded inspection copy.
// The pump stays at most teeWindow bytes ahead of the caller. Once the copy
// overflows the pump stops and the caller reads the rest straight from src.
// An early Close releases src after closeGrace at the latest.
type bodyTee struct {
	src io.ReadCloser

	mu          sync.Mutex
	cond        *sync.Cond
	pending     bytes.Buffer
	err         error
	closed      bool
	pumpDone    bool
	passthrough bool
	abandoned   bool

	shutOnce sync.Once
	shutErr  error
}

// newBodyTee starts the pump. done runs on the pump goroutine once the copy
// is complete, oversized, or failed.
func newBodyTee(src io.ReadCloser, limit int64, done func(dup []byte, overflow bool, readErr error)) *bodyTee {
	t := &bodyTee{src: src}
	t.cond = sync.NewCond(&t.mu)
	go t.pump(limit, done)
	return t
}

func (t *bodyTee) pump(limit int64, done func([]byte, bool, error)) {
	var (
		dup      []byte
		overflow bool
		readErr  error
	)
	buf := make([]byte, pumpChunk)
	for {
		t.mu.Lock()
		for t.pending.Len() >= teeWindow && !t.closed {
			t.cond.Wait()
		}
		t.mu.Unlock()

		n, err := t.src.Read(buf)
		if n > 0 {
			if int64(len(dup)+n) > limit {
				overflow = true
				dup = nil
			} else {
				dup = append(dup, buf[:n]...)
			}

			t.mu.Lock()
			callerGone := t.closed
			if !callerGone {
				t.pending.Write(buf[:n])
				if overflow {
					t.passthrough = true
					if err != nil {
						t.err = err
					}
				}
			}
			t.mu.Unlock()
			t.cond.Broadcast()

			if overflow {
				break
			}
		}
		if err != nil {
			t.mu.Lock()
			t.err = err
			t.mu.Unlock()
			t.cond.Broadcast()
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
	}

	t.mu.Lock()
	t.pumpDone = true
	closed := t.closed
	abandoned := t.abandoned
	t.mu.Unlock()
	if closed {
		t.shutSource()
	}
	if abandoned && readErr != nil {
		readErr = errInspectionAbandoned
	}
	done(dup, overflow, readErr)
}

func (t *bodyTee) Read(p []byte) (int, error) {
	t.mu.Lock()
	for t.pending.Len() == 0 && t.err == nil && !t.closed && !t.passthrough {
		t.cond.Wait()
	}
	if t.closed {
		t.mu.Unlock()
		return 0, errBodyClosed
	}
	if t.pending.Len() > 0 {
		n, _ := t.pending.Read(p)
		t.mu.Unlock()
		t.cond.Broadcast()
		return n, nil
	}
	if t.err != nil {
		err := t.err
		t.mu.Unlock()
		return 0, err
	}
	// passthrough: the pump has stopped and src belongs to the caller
	t.mu.Unlock()
	return t.src.Read(p)
}

// Close releases the caller's branch. When the pump is still filling the
// inspection copy the source is closed after closeGrace.
func (t *bodyTee) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.pending.Reset()
	direct := t.pumpDone || t.passthrough
	t.mu.Unlock()
	t.cond.Broadcast()
	if direct {
		return t.shutSource()
	}
	time.AfterFunc(closeGrace, t.abandon)
	return nil
}

func (t *bodyTee) abandon() {
	t.mu.Lock()
	if t.pumpDone {
		t.mu.Unlock()
		return
	}
	t.abandoned = true
	t.mu.Unlock()
	t.shutSource()
}

func (t *bodyTee) shutSource() error {
	t.shutOnce.Do(func() {
		t.shutErr = t.src.Close()
	})
	return t.shutErr
}
