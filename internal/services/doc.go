// Package services holds the shared error taxonomy and context helpers
// used by the service clients and pipeline stages.
package services
