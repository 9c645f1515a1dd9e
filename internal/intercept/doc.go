// Package intercept observes HTTP traffic issued by a host program and feeds
// queue-shaped JSON bodies into a record sink.
//
// An Interceptor is built once and holds the original, unwrapped primitives
// it delegates to: an http.RoundTripper and a JSON decode function. It
// exposes three entry points that all end in the same extraction path:
//
//   - Transport returns a RoundTripper for promise-style callers
//     (http.Client.Do and friends).
//   - Go issues a request asynchronously and reports through callbacks, for
//     callers that prefer load/error events.
//   - Unmarshal wraps the JSON decode primitive as a catch-all for code that
//     fetched bytes some other way.
//
// Eligible responses (queue-looking URL, or a JSON content type) get their
// body duplicated: a pump goroutine reads the original stream once and feeds
// both the caller's reader and a bounded inspection copy, so the caller sees
// the same bytes, errors and trailers as without the interceptor. The pump
// stays a few chunks ahead of the caller, hands the source over once the copy
// overflows, and closes it shortly after an early Close. Upgraded
// connections are never wrapped. Anything
// that goes wrong on the inspection side is recorded as an outcome, counted
// in Stats, logged at debug level, and otherwise dropped. Nothing from the
// inspection path is ever returned to the caller.
package intercept
