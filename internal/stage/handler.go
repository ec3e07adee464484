package stage

import (
	"context"

	"reelpost/internal/queue"
)

// Handler is one step of the posting pipeline (captioning, fetching,
// hosting, publishing). The workflow manager calls Prepare on the claimed
// item, persists it, then calls Execute for the stage's work. Both mutate
// the item in place; the manager owns persistence and status transitions.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}
