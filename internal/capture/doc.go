// Package capture replays recorded browser traffic through the interceptor.
//
// A capture is a HAR 1.2 archive as exported by browser devtools. Hand-edited
// archives may carry JSONC comments and trailing commas. Each entry's request
// is issued through an intercepted client whose underlying transport serves
// the recorded response, so the full detection path runs offline.
package capture
