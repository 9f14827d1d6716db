package kafkasink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Agrid-Dev/radiantctl/internal/ports"
	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

var ErrNoBrokers = errors.New("kafka sink needs at least one broker")

type Config struct {
	Brokers []string
	Topic   string
}

// messageWriter is the subset of *kafka.Writer used by the sink.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink publishes one message per zone day, keyed by zone so a zone's history
// stays ordered within its partition.
type Sink struct {
	w          messageWriter
	buildingID string
	now        func() time.Time
}

var _ ports.DayRecorder = (*Sink)(nil)

func New(cfg Config, buildingID string) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newWithWriter(w, buildingID), nil
}

func newWithWriter(w messageWriter, buildingID string) *Sink {
	return &Sink{w: w, buildingID: buildingID, now: time.Now}
}

type dayMessage struct {
	Building     string  `json:"building"`
	Environment  string  `json:"environment"`
	Zone         string  `json:"zone"`
	Day          int     `json:"day"`
	DayOfWeek    int     `json:"dayOfWeek"`
	DesignDay    bool    `json:"designDay"`
	Mode         string  `json:"mode"`
	SlabSetpoint float64 `json:"slabSetpoint"`
	CoolingError float64 `json:"coolingError"`
	HeatingError float64 `json:"heatingError"`
	MaxCtrlTemp  float64 `json:"maxCtrlTemp"`
	MinCtrlTemp  float64 `json:"minCtrlTemp"`
	CoolHours    float64 `json:"coolHours"`
	HeatHours    float64 `json:"heatHours"`
	Setback      bool    `json:"setback"`
	OutdoorMean  float64 `json:"outdoorMean"`
	SlabMean     float64 `json:"slabMean"`
}

func (s *Sink) RecordDay(ctx context.Context, d radiant.DaySummary) error {
	b, err := json.Marshal(dayMessage{
		Building:     s.buildingID,
		Environment:  d.Environment,
		Zone:         d.Zone,
		Day:          d.Day,
		DayOfWeek:    d.DayOfWeek,
		DesignDay:    d.DesignDay,
		Mode:         d.Mode.String(),
		SlabSetpoint: d.SlabSetpoint,
		CoolingError: d.CoolingError,
		HeatingError: d.HeatingError,
		MaxCtrlTemp:  d.MaxCtrlTemp,
		MinCtrlTemp:  d.MinCtrlTemp,
		CoolHours:    d.CoolHours,
		HeatHours:    d.HeatHours,
		Setback:      d.Setback,
		OutdoorMean:  d.OutdoorMean,
		SlabMean:     d.SlabMean,
	})
	if err != nil {
		return err
	}
	msg := kafka.Message{Key: []byte(d.Zone), Value: b, Time: s.now()}
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s day %d: %w", d.Zone, d.Day, err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.w.Close()
}
