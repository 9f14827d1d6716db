package httpctrl

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Agrid-Dev/radiantctl/internal/ports"
)

var (
	slabSetpointDesc = prometheus.NewDesc("radiant_slab_setpoint_celsius",
		"Adaptive slab setpoint per zone.", []string{"building", "zone"}, nil)
	modeDesc = prometheus.NewDesc("radiant_mode",
		"Loop mode per zone (-1 heating, 0 neutral, 1 cooling).", []string{"building", "zone"}, nil)
	coldWaterDesc = prometheus.NewDesc("radiant_cold_water_command",
		"Cold water actuator value (0 enabled, 100 disabled).", []string{"building", "zone"}, nil)
	hotWaterDesc = prometheus.NewDesc("radiant_hot_water_command",
		"Hot water actuator value (60 enabled, -60 disabled).", []string{"building", "zone"}, nil)
	comfortErrorDesc = prometheus.NewDesc("radiant_comfort_error_celsius",
		"Last daily comfort error per zone and side.", []string{"building", "zone", "side"}, nil)
	setbackDesc = prometheus.NewDesc("radiant_weekend_setback_active",
		"1 while the weekend setback window is active.", []string{"building", "zone"}, nil)
	outdoorMeanDesc = prometheus.NewDesc("radiant_outdoor_mean_celsius",
		"24h running mean of the outdoor air temperature.", []string{"building"}, nil)
)

// zoneCollector reads a fresh building snapshot on every scrape.
type zoneCollector struct {
	svc ports.ZoneService
}

func (c zoneCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- slabSetpointDesc
	ch <- modeDesc
	ch <- coldWaterDesc
	ch <- hotWaterDesc
	ch <- comfortErrorDesc
	ch <- setbackDesc
	ch <- outdoorMeanDesc
}

func (c zoneCollector) Collect(ch chan<- prometheus.Metric) {
	b := c.svc.Snapshot()
	ch <- prometheus.MustNewConstMetric(outdoorMeanDesc, prometheus.GaugeValue, b.OutdoorMean, b.ID)
	for _, z := range b.Zones {
		ch <- prometheus.MustNewConstMetric(slabSetpointDesc, prometheus.GaugeValue, z.SlabSetpoint, b.ID, z.Zone)
		ch <- prometheus.MustNewConstMetric(modeDesc, prometheus.GaugeValue, float64(z.Mode), b.ID, z.Zone)
		ch <- prometheus.MustNewConstMetric(coldWaterDesc, prometheus.GaugeValue, z.Actuators.ColdWater, b.ID, z.Zone)
		ch <- prometheus.MustNewConstMetric(hotWaterDesc, prometheus.GaugeValue, z.Actuators.HotWater, b.ID, z.Zone)
		ch <- prometheus.MustNewConstMetric(comfortErrorDesc, prometheus.GaugeValue, z.CoolingError, b.ID, z.Zone, "cooling")
		ch <- prometheus.MustNewConstMetric(comfortErrorDesc, prometheus.GaugeValue, z.HeatingError, b.ID, z.Zone, "heating")
		setback := 0.0
		if z.SetbackActive {
			setback = 1
		}
		ch <- prometheus.MustNewConstMetric(setbackDesc, prometheus.GaugeValue, setback, b.ID, z.Zone)
	}
}

type metrics struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
}

func newMetrics(svc ports.ZoneService) *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
	}
	m.reg.MustRegister(zoneCollector{svc: svc}, m.requests)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// instrument counts requests by chi route pattern.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
