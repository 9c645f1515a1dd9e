// Package preflight provides readiness checks for the filesystem paths and
// remote endpoints queuewatch depends on.
//
// These checks run in two contexts:
//   - The daemon calls CheckDirectoryAccess on the log directory before it
//     takes the instance lock, so a permissions problem is reported plainly.
//   - `queuewatch config validate --check` runs RunAll to probe the upstream
//     and the ntfy server as well.
//
// Each remote check is gated by its config value; unset features are skipped.
package preflight
