package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Agrid-Dev/thermograph/cmd/app"
	httpctrl "github.com/Agrid-Dev/thermograph/internal/controllers/http"
	modbusctrl "github.com/Agrid-Dev/thermograph/internal/controllers/modbus"
	mqttctrl "github.com/Agrid-Dev/thermograph/internal/controllers/mqtt"
	"github.com/Agrid-Dev/thermograph/internal/ports"
)

type runnable interface {
	Run(ctx context.Context) error
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [scenario]",
		Short: "Step a scenario live and expose it over the enabled controllers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			r, err := newRunner(cfg, path)
			if err != nil {
				return err
			}
			ctrls, err := controllers(cfg, r)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return r.Run(gctx) })
			for _, c := range ctrls {
				g.Go(func() error { return c.Run(gctx) })
			}
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			if exp, _ := cmd.Flags().GetBool("export"); exp {
				// The signal context is done; give the export its own.
				return exportRun(context.WithoutCancel(ctx), cfg, r)
			}
			return nil
		},
	}
	cmd.Flags().Bool("export", false, "export histories on shutdown")
	return cmd
}

func controllers(cfg app.Config, svc ports.SimulationService) ([]runnable, error) {
	var out []runnable
	c := cfg.Controllers

	if c.HTTP.Enabled {
		out = append(out, httpctrl.New(svc, c.HTTP.Addr, cfg.RunID))
	}
	if c.MQTT.Enabled {
		m, err := mqttctrl.New(svc, mqttctrl.Config{
			RunID:           cfg.RunID,
			BrokerURL:       c.MQTT.BrokerURL,
			ClientID:        c.MQTT.ClientID,
			BaseTopic:       c.MQTT.BaseTopic,
			QoS:             c.MQTT.QoS,
			RetainSnapshot:  c.MQTT.RetainSnapshot,
			PublishInterval: c.MQTT.PublishInterval,
			Username:        c.MQTT.Username,
			Password:        c.MQTT.Password,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if c.Modbus.Enabled {
		m, err := modbusctrl.New(svc, modbusctrl.Config{
			RunID:  cfg.RunID,
			Addr:   c.Modbus.Addr,
			UnitID: c.Modbus.UnitID,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		log.Warn("no controllers enabled, stepping headless")
	}
	return out, nil
}
