// Package workflow drives queued items through the processing stages.
//
// The manager polls the queue store, claims the oldest actionable item,
// and hands it to the registered stage handler for its current status.
// Retryable failures roll the item back to the previous stable status;
// permanent failures mark it failed and notify.
package workflow
