package utils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/race"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/utils/broadcast"
)

var ErrRaceNotFound = errors.New("race not found")

type (
	// RaceEntry couples a running emulation with its produced laps and
	// the fan-out channel for live consumers.
	RaceEntry struct {
		Key          string
		Race         *race.Instance
		LapBroadcast broadcast.BroadcastServer[*model.Record]

		mu         sync.Mutex
		laps       []*model.Record
		lapChan    chan *model.Record
		lastAccess time.Time
	}
	RaceLookup struct {
		mu            sync.Mutex
		lookup        map[string]*RaceEntry
		staleDuration time.Duration
	}
	LookupOption func(*RaceLookup)
)

func NewRaceLookup(opts ...LookupOption) *RaceLookup {
	ret := &RaceLookup{
		lookup:        make(map[string]*RaceEntry),
		staleDuration: time.Hour,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// WithStaleDuration sets how long a race may go without access before
// RemoveStale evicts it.
func WithStaleDuration(d time.Duration) LookupOption {
	return func(rl *RaceLookup) {
		rl.staleDuration = d
	}
}

func (rl *RaceLookup) AddRace(cfg model.RaceConfig, opts ...race.Option) *RaceEntry {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	key := uuid.New().String()
	lapChan := make(chan *model.Record)
	entry := &RaceEntry{
		Key:          key,
		Race:         race.NewInstance(cfg, opts...),
		lapChan:      lapChan,
		lastAccess:   time.Now(),
		LapBroadcast: broadcast.NewBroadcastServer(key, "laps", lapChan),
	}
	rl.lookup[key] = entry
	return entry
}

func (rl *RaceLookup) GetRace(key string) (*RaceEntry, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	entry, ok := rl.lookup[key]
	if !ok {
		return nil, ErrRaceNotFound
	}
	entry.touch()
	return entry, nil
}

func (rl *RaceLookup) RemoveRace(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if entry, ok := rl.lookup[key]; ok {
		entry.close()
		delete(rl.lookup, key)
	}
}

func (rl *RaceLookup) Races() []*RaceEntry {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	ret := make([]*RaceEntry, 0, len(rl.lookup))
	for _, v := range rl.lookup {
		ret = append(ret, v)
	}
	return ret
}

// RemoveStale evicts races not accessed within the stale duration and
// returns the removed keys.
func (rl *RaceLookup) RemoveStale() []string {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	deadline := time.Now().Add(-rl.staleDuration)
	ret := []string{}
	for key, entry := range rl.lookup {
		if entry.accessedBefore(deadline) {
			entry.close()
			delete(rl.lookup, key)
			ret = append(ret, key)
		}
	}
	return ret
}

func (rl *RaceLookup) Clear() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for _, entry := range rl.lookup {
		entry.close()
	}
	rl.lookup = make(map[string]*RaceEntry)
}

// AdvanceLap produces the next lap, retains it and feeds the broadcast.
// Calls are serialized per race.
func (e *RaceEntry) AdvanceLap(ctx context.Context) (*model.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.Race.Advance(ctx)
	if err != nil {
		return nil, err
	}
	e.laps = append(e.laps, rec)
	e.lastAccess = time.Now()
	select {
	case e.lapChan <- rec:
	case <-time.After(50 * time.Millisecond): // broadcaster closed or saturated
	}
	return rec, nil
}

// Reset rewinds the race to before lap one and drops the retained laps.
func (e *RaceEntry) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Race.Reset()
	e.laps = nil
	e.lastAccess = time.Now()
}

// Laps returns a copy of all laps produced so far.
func (e *RaceEntry) Laps() []*model.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	ret := make([]*model.Record, len(e.laps))
	copy(ret, e.laps)
	return ret
}

// Lap returns the record of a single completed lap.
func (e *RaceEntry) Lap(lapNumber int) (*model.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if lapNumber < 1 || lapNumber > len(e.laps) {
		return nil, race.ErrLapOutOfRange
	}
	return e.laps[lapNumber-1], nil
}

func (e *RaceEntry) touch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastAccess = time.Now()
}

func (e *RaceEntry) accessedBefore(deadline time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAccess.Before(deadline)
}

func (e *RaceEntry) close() {
	e.LapBroadcast.Close()
}
