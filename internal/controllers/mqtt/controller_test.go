package mqttctrl

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Agrid-Dev/radiantctl/internal/radiant"
	"github.com/Agrid-Dev/radiantctl/internal/testutil"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakeToken struct {
	err  error
	done chan struct{}
}

func (t fakeToken) Done() <-chan struct{} {
	if t.done == nil {
		t.done = make(chan struct{})
		close(t.done)
	}
	return t.done
}

func (t fakeToken) Wait() bool                       { return true }
func (t fakeToken) WaitTimeout(_ time.Duration) bool { return true }
func (t fakeToken) Error() error                     { return t.err }

type publishCall struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type fakeClient struct {
	publishes []publishCall
}

func (c *fakeClient) IsConnected() bool      { return true }
func (c *fakeClient) IsConnectionOpen() bool { return true }
func (c *fakeClient) Connect() mqtt.Token    { return fakeToken{} }
func (c *fakeClient) Disconnect(_ uint)      {}
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	var b []byte
	switch v := payload.(type) {
	case []byte:
		b = append([]byte(nil), v...)
	case string:
		b = []byte(v)
	default:
		tmp, _ := json.Marshal(v)
		b = tmp
	}
	c.publishes = append(c.publishes, publishCall{
		topic: topic, qos: qos, retain: retained, payload: b,
	})
	return fakeToken{}
}
func (c *fakeClient) Subscribe(_ string, _ byte, _ mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}
func (c *fakeClient) SubscribeMultiple(_ map[string]byte, _ mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}
func (c *fakeClient) Unsubscribe(_ ...string) mqtt.Token       { return fakeToken{} }
func (c *fakeClient) AddRoute(_ string, _ mqtt.MessageHandler) {}
func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader  { return mqtt.ClientOptionsReader{} }

// ---- tests ----

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T) (*Controller, *testutil.FakeZoneService, *fakeClient) {
	t.Helper()
	svc := testutil.NewFakeZoneService()
	c, err := New(svc, Config{BuildingID: "hq"}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	fc := &fakeClient{}
	c.client = fc
	return c, svc, fc
}

func TestNewDefaults(t *testing.T) {
	c, err := New(testutil.NewFakeZoneService(), Config{BuildingID: "hq"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if c.cfg.BrokerURL != "tcp://localhost:1883" {
		t.Fatalf("expected default BrokerURL, got %q", c.cfg.BrokerURL)
	}
	if c.cfg.BaseTopic != "radiantctl/hq" {
		t.Fatalf("expected default BaseTopic, got %q", c.cfg.BaseTopic)
	}
	if c.cfg.ClientID != "radiantctl-hq" {
		t.Fatalf("expected default ClientID, got %q", c.cfg.ClientID)
	}
	if c.cfg.PublishInterval != 1*time.Second {
		t.Fatalf("expected default PublishInterval, got %v", c.cfg.PublishInterval)
	}
}

func TestNewValidation(t *testing.T) {
	svc := testutil.NewFakeZoneService()

	if _, err := New(svc, Config{}, nil); err == nil {
		t.Fatal("expected error when BuildingID missing")
	}

	if _, err := New(svc, Config{BuildingID: "x", QoS: 2}, nil); err == nil {
		t.Fatal("expected error when QoS > 1")
	}
}

func TestTopicJoin(t *testing.T) {
	c, err := New(testutil.NewFakeZoneService(), Config{BuildingID: "hq", BaseTopic: "radiantctl/hq/"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.topic("North/snapshot"); got != "radiantctl/hq/North/snapshot" {
		t.Fatalf("expected topic without double slashes, got %q", got)
	}
}

func TestOnMessage_IgnoresWrongPrefix(t *testing.T) {
	c, svc, _ := newTestController(t)

	c.onMessage(nil, fakeMessage{
		topic:   "otherprefix/step/before_demand",
		payload: []byte(`{"day_of_week":2,"hour":1,"slab":{"North":21}}`),
	})

	if svc.BeforeDemandCalled {
		t.Fatal("expected BeforeDemand not called")
	}
}

func TestOnMessage_BeforeDemandPublishesCommands(t *testing.T) {
	c, svc, fc := newTestController(t)
	svc.BeforeDemandOut = []radiant.Output{
		{Zone: "North", Command: radiant.CommandHeating, Actuators: radiant.CommandHeating.Actuators(), Reason: "slab below setpoint"},
		{Zone: "South", Command: radiant.CommandOff, Actuators: radiant.CommandOff.Actuators(), Reason: "idle"},
	}

	c.onMessage(nil, fakeMessage{
		topic:   "radiantctl/hq/step/before_demand",
		payload: []byte(`{"day_of_week":2,"hour":6.25,"slab":{"North":19.5,"South":22}}`),
	})

	if !svc.BeforeDemandCalled || svc.BeforeDemandArg.Calendar.Hour != 6.25 {
		t.Fatalf("expected BeforeDemand(hour=6.25), got %+v", svc.BeforeDemandArg)
	}
	if len(fc.publishes) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(fc.publishes))
	}
	p := fc.publishes[0]
	if p.topic != "radiantctl/hq/North/command" || p.retain {
		t.Fatalf("unexpected publish %s retain=%v", p.topic, p.retain)
	}
	var got map[string]any
	if err := json.Unmarshal(p.payload, &got); err != nil {
		t.Fatal(err)
	}
	if got["hot_water"] != 60.0 || got["cold_water"] != 100.0 {
		t.Fatalf("expected heating actuators, got %v", got)
	}
}

func TestOnMessage_InvalidFrameDropped(t *testing.T) {
	c, svc, fc := newTestController(t)

	for _, payload := range []string{`{"hour":1}`, `{"day_of_week":2,"hour":`, `{"day_of_week":0,"hour":1,"slab":{"North":1}}`} {
		c.onMessage(nil, fakeMessage{topic: "radiantctl/hq/step/before_demand", payload: []byte(payload)})
	}
	if svc.BeforeDemandCalled || len(fc.publishes) != 0 {
		t.Fatalf("invalid frames reached the service")
	}
}

func TestOnMessage_ServiceErrorPublishesNothing(t *testing.T) {
	c, svc, fc := newTestController(t)
	svc.BeforeDemandErr = errors.New("missing zone reading")

	c.onMessage(nil, fakeMessage{
		topic:   "radiantctl/hq/step/before_demand",
		payload: []byte(`{"day_of_week":2,"hour":1,"slab":{"North":21}}`),
	})
	if len(fc.publishes) != 0 {
		t.Fatalf("expected no publishes, got %d", len(fc.publishes))
	}
}

func TestOnMessage_AfterReportingPublishesDays(t *testing.T) {
	c, svc, fc := newTestController(t)
	svc.AfterReportingOut = []radiant.DaySummary{{Zone: "South", Day: 6, Mode: radiant.ModeCooling, SlabSetpoint: 22.5}}

	c.onMessage(nil, fakeMessage{
		topic:   "radiantctl/hq/step/after_reporting",
		payload: []byte(`{"day_of_week":7,"hour":24,"outdoor":28,"zones":{"South":{"control":24.5,"slab":23,"cooling":true}}}`),
	})

	r := svc.AfterReportingArg.Readings["South"]
	if !r.CoolingActive || r.ControlTemperature != 24.5 || svc.AfterReportingArg.OutdoorTemperature != 28 {
		t.Fatalf("unexpected frame %+v", svc.AfterReportingArg)
	}
	if len(fc.publishes) != 1 || fc.publishes[0].topic != "radiantctl/hq/South/day" {
		t.Fatalf("unexpected publishes %+v", fc.publishes)
	}
}

func TestOnMessage_Reset(t *testing.T) {
	c, svc, _ := newTestController(t)
	c.onMessage(nil, fakeMessage{topic: "radiantctl/hq/reset"})
	if svc.ResetCalls != 1 {
		t.Fatalf("expected Reset called once, got %d", svc.ResetCalls)
	}
}

func TestPublishSnapshots_OnlyChanged(t *testing.T) {
	c, svc, fc := newTestController(t)
	c.cfg.RetainSnapshot = true

	c.publishSnapshots()
	if len(fc.publishes) != 2 {
		t.Fatalf("expected one snapshot per zone, got %d", len(fc.publishes))
	}
	if !fc.publishes[0].retain || fc.publishes[0].topic != "radiantctl/hq/North/snapshot" {
		t.Fatalf("unexpected publish %+v", fc.publishes[0])
	}

	c.publishSnapshots()
	if len(fc.publishes) != 2 {
		t.Fatalf("unchanged snapshots republished")
	}

	svc.S.Zones[1].SlabSetpoint = 22
	c.publishSnapshots()
	if len(fc.publishes) != 3 || fc.publishes[2].topic != "radiantctl/hq/South/snapshot" {
		t.Fatalf("expected only South republished, got %+v", fc.publishes)
	}
}
