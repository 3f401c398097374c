package profile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/medvault/medvault/internal/record"
)

// Snapshotter is the slice of the record store the synthesizer reads.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*record.Snapshot, error)
}

// Service produces emergency views on demand. Each call reads one
// consistent snapshot and synthesizes against the current clock.
type Service struct {
	snaps  Snapshotter
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(snaps Snapshotter, logger zerolog.Logger) *Service {
	return &Service{snaps: snaps, logger: logger, now: time.Now}
}

// View builds the current emergency view.
func (s *Service) View(ctx context.Context) (*EmergencyView, error) {
	snap, err := s.snaps.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Synthesize(snap, s.now())
}
