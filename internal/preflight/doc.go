// Package preflight provides readiness checks for external services
// and filesystem paths that reelpost depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs any failures.
//   - The CLI "reelpost status" command uses individual check functions
//     to display service health.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
