// Package shape classifies untyped JSON values and request URLs as plausible
// queue-ticket data.
//
// Detection is deliberately heuristic. LooksLikeQueueURL is a cheap substring
// test used to decide whether a response body is worth parsing, and
// LooksLikeQueuePayload accepts any value where at least one element carries
// the ticket/queue/state keys. Validate is the stricter gate applied at
// ingestion time: it turns a single element into a Candidate only when every
// identity field is present, and reports a *ShapeError otherwise.
//
// Values are expected in the form produced by Decode (maps, slices,
// json.Number, string, bool, nil). Nothing here allocates typed records; that
// happens in the queue package once a Candidate exists.
package shape
