package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Agrid-Dev/radiantctl/cmd/app"
	httpctrl "github.com/Agrid-Dev/radiantctl/internal/controllers/http"
	modbusctrl "github.com/Agrid-Dev/radiantctl/internal/controllers/modbus"
	mqttctrl "github.com/Agrid-Dev/radiantctl/internal/controllers/mqtt"
	"github.com/Agrid-Dev/radiantctl/internal/building"
	"github.com/Agrid-Dev/radiantctl/internal/ports"
	"github.com/Agrid-Dev/radiantctl/internal/sink/kafkasink"
	"github.com/Agrid-Dev/radiantctl/internal/simulation"
	"github.com/Agrid-Dev/radiantctl/internal/store"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "radiantctl",
		Short: "Adaptive proportional control of radiant slab zones",
		Long: `radiantctl runs one adaptive slab setpoint controller per radiant zone,
either against the built-in plant simulation or behind HTTP, MQTT and Modbus.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to config file (.yaml/.yml/.json)")

	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime bundles what both subcommands need.
type runtime struct {
	cfg      app.Config
	log      *slog.Logger
	closeLog func() error
	building *building.Building
}

func setup() (*runtime, error) {
	cfg, err := app.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger, closeLog, err := app.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.BuildingOptions(logger)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	setups, err := cfg.ZoneSetups(logger)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	b, err := building.New(opts, setups, logger)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	return &runtime{cfg: cfg, log: logger, closeLog: closeLog, building: b}, nil
}

func (rt *runtime) runner(recorders ...ports.DayRecorder) (*simulation.Runner, error) {
	plants := make(map[string]*simulation.Plant)
	for _, name := range rt.building.ZoneNames() {
		p, err := simulation.NewPlant(rt.cfg.PlantParams())
		if err != nil {
			return nil, err
		}
		plants[name] = p
	}
	opts, err := rt.cfg.BuildingOptions(nil)
	if err != nil {
		return nil, err
	}
	return simulation.NewRunner(rt.building, opts.Params, plants, rt.cfg.Weather(), rt.log, recorders...)
}

func simulateCmd() *cobra.Command {
	var dumpConfig bool
	var days int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the design days and run period against the plant simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dumpConfig {
				cfg, err := app.LoadConfig(cfgFile)
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(os.Stdout)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(cfg)
			}

			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.closeLog()
			if days > 0 {
				rt.cfg.Simulation.Days = days
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var recorders []ports.DayRecorder
			var st *store.Store
			var rec *store.Recorder
			if rt.cfg.Store.Enabled {
				st, err = store.Open(rt.cfg.Store.DSN)
				if err != nil {
					return err
				}
				defer st.Close()
				rec, err = st.StartRun(ctx, rt.cfg.BuildingID)
				if err != nil {
					return err
				}
				recorders = append(recorders, rec)
				rt.log.Info("recording run", "run_id", rec.RunID, "dsn", rt.cfg.Store.DSN)
			}
			if rt.cfg.Kafka.Enabled {
				sink, err := kafkasink.New(kafkasink.Config{Brokers: rt.cfg.Kafka.Brokers, Topic: rt.cfg.Kafka.Topic}, rt.cfg.BuildingID)
				if err != nil {
					return err
				}
				defer sink.Close()
				recorders = append(recorders, sink)
			}

			r, err := rt.runner(recorders...)
			if err != nil {
				return err
			}
			res, err := r.Run(ctx, rt.cfg.Environments())
			if err != nil {
				return err
			}
			if rec != nil {
				if err := st.FinishRun(ctx, rec.RunID, res.Steps); err != nil {
					return err
				}
			}
			rt.log.Info("simulation finished",
				"environments", res.Environments, "steps", res.Steps, "day_summaries", res.Summaries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dumpConfig, "dump-config", false, "print the effective configuration as YAML and exit")
	cmd.Flags().IntVar(&days, "days", 0, "override the run period length in days")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the building over the enabled controllers",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.closeLog()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)
			c := rt.cfg.Controllers

			if c.HTTP.Enabled {
				srv := httpctrl.New(rt.building, c.HTTP.Addr, rt.log)
				g.Go(func() error { return srv.Run(gctx) })
				rt.log.Info("http controller enabled", "addr", c.HTTP.Addr)
			}
			if c.MQTT.Enabled {
				m, err := mqttctrl.New(rt.building, mqttctrl.Config{
					BuildingID:      rt.cfg.BuildingID,
					BrokerURL:       c.MQTT.BrokerURL,
					ClientID:        c.MQTT.ClientID,
					BaseTopic:       c.MQTT.BaseTopic,
					QoS:             c.MQTT.QoS,
					RetainSnapshot:  c.MQTT.RetainSnapshot,
					PublishInterval: c.MQTT.PublishInterval,
					Username:        c.MQTT.Username,
					Password:        c.MQTT.Password,
				}, rt.log)
				if err != nil {
					return err
				}
				g.Go(func() error { return m.Run(gctx) })
				rt.log.Info("mqtt controller enabled", "broker", c.MQTT.BrokerURL)
			}
			if c.MODBUS.Enabled {
				mb, err := modbusctrl.New(rt.building, modbusctrl.Config{Addr: c.MODBUS.Addr, UnitID: c.MODBUS.UnitID}, rt.log)
				if err != nil {
					return err
				}
				g.Go(func() error { return mb.Run(gctx) })
			}

			// A paced internal simulation drives the building; otherwise an
			// external engine posts the step frames.
			if rt.cfg.Simulation.Pace > 0 {
				r, err := rt.runner()
				if err != nil {
					return err
				}
				r.Pace = rt.cfg.Simulation.Pace
				g.Go(func() error {
					_, err := r.Run(gctx, rt.cfg.Environments())
					return err
				})
			}

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
