package nats

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/ohler55/ojg/oj"

	"github.com/pitwall-labs/f1-strategy-manager-go/log"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/broadcast"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

type (
	// Publisher pushes lap data onto NATS subjects. Laps go out on
	// race.<key>.lap, snapshots on race.<key>.snapshot.
	Publisher struct {
		conn *nats.Conn
		l    *log.Logger
	}
	Option func(*Publisher)
)

var _ broadcast.LapPublisher = (*Publisher)(nil)

func NewPublisher(conn *nats.Conn, opts ...Option) *Publisher {
	ret := &Publisher{
		conn: conn,
		l:    log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.l = l
	}
}

func (p *Publisher) PublishLap(raceKey string, rec *model.Record) error {
	data, err := oj.Marshal(rec)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(
		fmt.Sprintf("race.%s.lap", raceKey), data); err != nil {
		p.l.Error("publish lap",
			log.String("raceKey", raceKey),
			log.Int("lap", rec.LapNumber),
			log.ErrorField(err))
		return err
	}
	return nil
}

func (p *Publisher) PublishSnapshot(raceKey string, snap *model.Snapshot) error {
	data, err := oj.Marshal(snap)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(
		fmt.Sprintf("race.%s.snapshot", raceKey), data); err != nil {
		p.l.Error("publish snapshot",
			log.String("raceKey", raceKey),
			log.ErrorField(err))
		return err
	}
	return nil
}

func (p *Publisher) Close() {
	p.conn.Close()
}
