// Package race exposes the race emulation over a JSON HTTP API.
package race

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ohler55/ojg/oj"

	"github.com/pitwall-labs/f1-strategy-manager-go/log"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/broadcast"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/server/auth"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/params"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/race"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/strategy"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/utils"
)

type (
	Server struct {
		lookup    *utils.RaceLookup
		params    *params.Params
		predictor strategy.Predictor
		publisher broadcast.LapPublisher
		l         *log.Logger
	}
	Option func(*Server)

	createRaceRequest struct {
		Season       int    `json:"season,omitempty"`
		Driver       string `json:"driver"`
		Strategy     string `json:"strategy,omitempty"`
		GridPosition int    `json:"grid_position,omitempty"`
		Seed         int64  `json:"seed,omitempty"`
	}
	createRaceResponse struct {
		RaceKey  string        `json:"race_key"`
		Metadata race.Metadata `json:"metadata"`
	}
	raceStatusResponse struct {
		Status string `json:"status"`
	}
)

func NewServer(opts ...Option) *Server {
	ret := &Server{
		params:    params.Defaults(),
		predictor: strategy.NewRuleBased(),
		publisher: broadcast.NewNoop(),
		l:         log.Default().Named("server.race"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.lookup == nil {
		ret.lookup = utils.NewRaceLookup()
	}
	return ret
}

func WithRaceLookup(lookup *utils.RaceLookup) Option {
	return func(srv *Server) {
		srv.lookup = lookup
	}
}

func WithParams(p *params.Params) Option {
	return func(srv *Server) {
		srv.params = p
	}
}

func WithPredictor(p strategy.Predictor) Option {
	return func(srv *Server) {
		srv.predictor = p
	}
}

func WithPublisher(p broadcast.LapPublisher) Option {
	return func(srv *Server) {
		srv.publisher = p
	}
}

func WithLogger(l *log.Logger) Option {
	return func(srv *Server) {
		srv.l = l
	}
}

// Register installs the API routes on the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/races", auth.RequireAdmin(s.createRace))
	mux.HandleFunc("GET /api/races", s.listRaces)
	mux.HandleFunc("GET /api/races/{key}", s.getRace)
	mux.HandleFunc("GET /api/races/{key}/feed", s.feed)
	mux.HandleFunc("GET /api/races/{key}/stream", s.stream)
	mux.HandleFunc("POST /api/races/{key}/reset", auth.RequireAdmin(s.resetRace))
	mux.HandleFunc("GET /api/races/{key}/laps", s.laps)
}

func (s *Server) createRace(w http.ResponseWriter, r *http.Request) {
	var req createRaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cfg, err := s.buildConfig(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts := []race.Option{}
	if req.Seed != 0 {
		opts = append(opts, race.WithSeed(req.Seed))
	}
	entry := s.lookup.AddRace(*cfg, opts...)
	s.l.Info("race created",
		log.String("raceKey", entry.Key),
		log.String("driver", cfg.Driver.Name),
		log.String("strategy", cfg.Strategy.Name))
	s.writeJSON(w, http.StatusCreated, createRaceResponse{
		RaceKey:  entry.Key,
		Metadata: entry.Race.Metadata(),
	})
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Server) buildConfig(req *createRaceRequest) (
	*model.RaceConfig, error,
) {
	driver, ok := s.params.Driver(req.Driver)
	if !ok {
		return nil, errors.New("unknown driver: " + req.Driver)
	}
	gridPos := req.GridPosition
	if gridPos <= 0 {
		gridPos = 1
	}
	strategyName := req.Strategy
	if strategyName == "" {
		strategyName = s.params.StrategyPoolFor(gridPos)[0]
	}
	stintStrategy, ok := s.params.Strategy(strategyName)
	if !ok {
		return nil, errors.New("unknown strategy: " + strategyName)
	}
	season := req.Season
	if season == 0 {
		season = s.params.Season
	}
	return &model.RaceConfig{
		Circuit:      s.params.Circuit,
		Driver:       driver,
		Strategy:     stintStrategy,
		Season:       season,
		GridPosition: gridPos,
		FieldSize:    len(s.params.Drivers),
	}, nil
}

func (s *Server) listRaces(w http.ResponseWriter, _ *http.Request) {
	entries := s.lookup.Races()
	ret := make(map[string]race.Metadata, len(entries))
	for _, entry := range entries {
		ret[entry.Key] = entry.Race.Metadata()
	}
	s.writeJSON(w, http.StatusOK, ret)
}

func (s *Server) getRace(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.resolve(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, entry.Race.Metadata())
}

// feed advances the race by one lap and returns the dashboard snapshot.
// A finished race answers with a terminal status payload, not an error.
func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.resolve(w, r)
	if !ok {
		return
	}
	rec, err := entry.AdvanceLap(r.Context())
	if errors.Is(err, race.ErrRaceFinished) {
		s.writeJSON(w, http.StatusOK, raceStatusResponse{Status: "Race Finished"})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	snap := model.BuildSnapshot(rec, s.prevLap(entry, rec), s.recommend(r, rec))

	//nolint:errcheck // broadcast failures must not fail the request
	s.publisher.PublishLap(entry.Key, rec)
	//nolint:errcheck // broadcast failures must not fail the request
	s.publisher.PublishSnapshot(entry.Key, snap)

	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) prevLap(entry *utils.RaceEntry, rec *model.Record) *model.Record {
	if prev, err := entry.Lap(rec.LapNumber - 1); err == nil {
		return prev
	}
	return nil
}

// recommend runs the strategy classifier on the lap. A failing predictor
// degrades to the neutral fallback.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *Server) recommend(
	r *http.Request, rec *model.Record,
) model.StrategyRecommendation {
	pred, err := s.predictor.Predict(r.Context(), strategy.FeaturesFromRecord(rec))
	if err != nil {
		s.l.Warn("predictor failed, using fallback",
			log.Int("lap", rec.LapNumber),
			log.ErrorField(err))
		pred = strategy.NeutralFallback()
	}
	return model.StrategyRecommendation{
		Recommended: pred.Recommended,
		Confidence:  pred.Confidence,
	}
}

// stream subscribes to the race's lap broadcast and forwards every lap as
// a server-sent event until the client disconnects. Laps are produced by
// concurrent feed calls; a stream on an idle race stays silent.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.resolve(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	sub := entry.LapBroadcast.Subscribe()
	defer entry.LapBroadcast.CancelSubscription(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	s.l.Debug("lap stream opened", log.String("raceKey", entry.Key))

	for {
		select {
		case <-r.Context().Done():
			return
		case rec, more := <-sub:
			if !more {
				return
			}
			data, err := oj.Marshal(rec)
			if err != nil {
				s.l.Error("encoding lap event", log.ErrorField(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) resetRace(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.resolve(w, r)
	if !ok {
		return
	}
	entry.Reset()
	s.l.Info("race reset", log.String("raceKey", entry.Key))
	s.writeJSON(w, http.StatusOK, raceStatusResponse{Status: "Race Reset"})
}

func (s *Server) laps(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.resolve(w, r)
	if !ok {
		return
	}
	if arg := r.URL.Query().Get("lap"); arg != "" {
		lapNumber, err := strconv.Atoi(arg)
		if err != nil {
			http.Error(w, "invalid lap number", http.StatusBadRequest)
			return
		}
		rec, err := entry.Lap(lapNumber)
		if errors.Is(err, race.ErrLapOutOfRange) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.writeJSON(w, http.StatusOK, rec)
		return
	}
	s.writeJSON(w, http.StatusOK, entry.Laps())
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) (*utils.RaceEntry, bool) {
	entry, err := s.lookup.GetRace(r.PathValue("key"))
	if errors.Is(err, utils.ErrRaceNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return entry, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := oj.Marshal(payload)
	if err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.l.Error("writing response", log.ErrorField(err))
	}
}
