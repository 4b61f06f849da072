package publish

import (
	"context"

	"github.com/chudst/edeska-harvester/internal/harvest"
)

// Noop is the publisher used when no FTP credentials are configured. Every
// call reports a soft skip.
type Noop struct{}

// Publish always returns harvest.ErrPublishSkipped.
func (Noop) Publish(context.Context, string, string) error {
	return harvest.ErrPublishSkipped
}
