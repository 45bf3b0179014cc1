// Package broadcast fans out per-lap data to interested consumers.
// The server publishes every advanced lap; dashboards and recorders
// subscribe on the messaging side without touching the engine.
package broadcast

import (
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

type (
	// LapPublisher receives every lap record the moment it is produced.
	LapPublisher interface {
		PublishLap(raceKey string, rec *model.Record) error
		PublishSnapshot(raceKey string, snap *model.Snapshot) error
		Close()
	}

	noopPublisher struct{}
)

// NewNoop returns a publisher discarding everything. Used when no
// messaging backend is configured.
func NewNoop() LapPublisher {
	return &noopPublisher{}
}

func (p *noopPublisher) PublishLap(string, *model.Record) error      { return nil }
func (p *noopPublisher) PublishSnapshot(string, *model.Snapshot) error { return nil }
func (p *noopPublisher) Close()                                      {}
