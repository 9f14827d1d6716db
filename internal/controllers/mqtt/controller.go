package mqttctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Agrid-Dev/radiantctl/internal/controllers/wire"
	"github.com/Agrid-Dev/radiantctl/internal/ports"
	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

type Config struct {
	// Identity
	BuildingID string

	// MQTT connection
	BrokerURL string
	ClientID  string

	// Topics
	BaseTopic string

	// Behavior
	QoS             byte
	RetainSnapshot  bool
	PublishInterval time.Duration

	Username string
	Password string
}

type Controller struct {
	svc ports.ZoneService
	cfg Config
	log *slog.Logger

	client mqtt.Client
	last   map[string]radiant.Snapshot
}

func New(svc ports.ZoneService, cfg Config, logger *slog.Logger) (*Controller, error) {
	// ---- defaults ----

	if cfg.BrokerURL == "" {
		cfg.BrokerURL = "tcp://localhost:1883"
	}

	if cfg.BuildingID == "" {
		return nil, errors.New("mqtt: BuildingID is required")
	}
	if cfg.BaseTopic == "" {
		cfg.BaseTopic = "radiantctl/" + cfg.BuildingID
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "radiantctl-" + cfg.BuildingID
	}
	if cfg.PublishInterval <= 0 {
		cfg.PublishInterval = 1 * time.Second
	}
	if cfg.QoS > 1 {
		return nil, errors.New("mqtt: QoS must be 0 or 1")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		svc:  svc,
		cfg:  cfg,
		log:  logger.With("controller", "mqtt"),
		last: map[string]radiant.Snapshot{},
	}, nil
}

func (c *Controller) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	// Subscribe when connected/reconnected.
	opts.OnConnect = func(cl mqtt.Client) {
		filters := map[string]byte{
			c.topic("step/+"): c.cfg.QoS,
			c.topic("reset"):  c.cfg.QoS,
		}
		token := cl.SubscribeMultiple(filters, c.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Error("mqtt subscribe failed", "err", err)
		}
	}

	c.client = mqtt.NewClient(opts)
	tok := c.client.Connect()
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	// Publish loop: publish zone snapshots on interval, and only when changed.
	ticker := time.NewTicker(c.cfg.PublishInterval)
	defer ticker.Stop()

	c.publishSnapshots()

	for {
		select {
		case <-ctx.Done():
			c.client.Disconnect(250)
			return ctx.Err()

		case <-ticker.C:
			c.publishSnapshots()
		}
	}
}

// publishSnapshots publishes every zone whose snapshot changed since the last call.
func (c *Controller) publishSnapshots() {
	for _, z := range c.svc.Snapshot().Zones {
		if prev, ok := c.last[z.Zone]; ok && prev == z {
			continue
		}
		b, _ := json.Marshal(wire.FromSnapshot(z))
		c.client.Publish(c.topic(z.Zone+"/snapshot"), c.cfg.QoS, c.cfg.RetainSnapshot, b)
		c.last[z.Zone] = z
	}
}

func (c *Controller) onMessage(_ mqtt.Client, msg mqtt.Message) {
	// topic format: <base>/step/<call point> or <base>/reset
	t := msg.Topic()
	prefix := strings.TrimRight(c.cfg.BaseTopic, "/") + "/"
	if !strings.HasPrefix(t, prefix) {
		return
	}
	action := strings.TrimPrefix(t, prefix)
	ctx := context.Background()

	// Dispatch by action
	switch action {
	case "step/before_demand":
		f, err := wire.DecodeBeforeDemand(bytes.NewReader(msg.Payload()))
		if err != nil {
			c.log.Warn("dropping before-demand frame", "err", err)
			return
		}
		outs, err := c.svc.BeforeDemand(ctx, f)
		if err != nil {
			c.log.Warn("before-demand failed", "err", err, "day_of_week", f.Calendar.DayOfWeek, "hour", f.Calendar.Hour)
			return
		}
		for _, o := range outs {
			b, _ := json.Marshal(wire.FromOutput(o))
			c.client.Publish(c.topic(o.Zone+"/command"), c.cfg.QoS, false, b)
		}

	case "step/after_reporting":
		f, err := wire.DecodeAfterReporting(bytes.NewReader(msg.Payload()))
		if err != nil {
			c.log.Warn("dropping after-reporting frame", "err", err)
			return
		}
		days, err := c.svc.AfterReporting(ctx, f)
		if err != nil {
			c.log.Warn("after-reporting failed", "err", err, "day_of_week", f.Calendar.DayOfWeek, "hour", f.Calendar.Hour)
			return
		}
		for _, d := range days {
			b, _ := json.Marshal(daySummaryDTO(d))
			c.client.Publish(c.topic(d.Zone+"/day"), c.cfg.QoS, false, b)
		}

	case "reset":
		c.svc.Reset()
		c.log.Info("building reset via mqtt")
	}
}

type daySummary struct {
	Day          int     `json:"day"`
	DayOfWeek    int     `json:"day_of_week"`
	Mode         string  `json:"mode"`
	SlabSetpoint float64 `json:"slab_setpoint"`
	CoolingError float64 `json:"cooling_error"`
	HeatingError float64 `json:"heating_error"`
	CoolHours    float64 `json:"cool_hours"`
	HeatHours    float64 `json:"heat_hours"`
	Setback      bool    `json:"setback"`
}

func daySummaryDTO(d radiant.DaySummary) daySummary {
	return daySummary{
		Day:          d.Day,
		DayOfWeek:    d.DayOfWeek,
		Mode:         d.Mode.String(),
		SlabSetpoint: d.SlabSetpoint,
		CoolingError: d.CoolingError,
		HeatingError: d.HeatingError,
		CoolHours:    d.CoolHours,
		HeatHours:    d.HeatHours,
		Setback:      d.Setback,
	}
}

func (c *Controller) topic(suffix string) string {
	return strings.TrimRight(c.cfg.BaseTopic, "/") + "/" + suffix
}
