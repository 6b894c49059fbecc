package mqttctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/Agrid-Dev/thermograph/internal/ports"
	"github.com/Agrid-Dev/thermograph/internal/simulation"
)

type Config struct {
	// Identity
	RunID string

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
	svc ports.SimulationService
	cfg Config
	log *log.Entry

	client mqtt.Client
}

func New(svc ports.SimulationService, cfg Config) (*Controller, error) {
	// ---- defaults ----

	if cfg.BrokerURL == "" {
		cfg.BrokerURL = "tcp://localhost:1883"
	}

	if cfg.RunID == "" {
		return nil, errors.New("mqtt: RunID is required")
	}
	if cfg.BaseTopic == "" {
		cfg.BaseTopic = "thermograph/" + cfg.RunID
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "thermograph-" + cfg.RunID
	}
	if cfg.PublishInterval <= 0 {
		cfg.PublishInterval = 1 * time.Second
	}
	if cfg.QoS > 1 {
		return nil, errors.New("mqtt: QoS must be 0 or 1")
	}
	return &Controller{
		svc: svc,
		cfg: cfg,
		log: log.WithFields(log.Fields{"component": "mqtt", "run_id": cfg.RunID}),
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
		// Multi-level wildcard: boundary commands carry the id as a sub-topic.
		topic := c.topic("set/#")
		token := cl.Subscribe(topic, c.cfg.QoS, c.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.WithError(err).WithField("topic", topic).Error("mqtt subscribe failed")
		}
	}

	c.client = mqtt.NewClient(opts)
	tok := c.client.Connect()
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.log.WithField("broker", c.cfg.BrokerURL).Info("mqtt controller connected")

	// Publish loop: publish snapshot on interval, and only when changed.
	ticker := time.NewTicker(c.cfg.PublishInterval)
	defer ticker.Stop()

	last := c.svc.Get()
	c.publish(last)

	for {
		select {
		case <-ctx.Done():
			c.client.Disconnect(250)
			return ctx.Err()

		case <-ticker.C:
			cur := c.svc.Get()
			if !reflect.DeepEqual(cur, last) {
				c.publish(cur)
				last = cur
			}
		}
	}
}

func (c *Controller) publishSnapshot() {
	c.publish(c.svc.Get())
}

func (c *Controller) publish(s simulation.Snapshot) {
	b, err := json.Marshal(toDTO(s))
	if err != nil {
		c.log.WithError(err).Error("encode snapshot")
		return
	}
	c.client.Publish(c.topic("snapshot"), c.cfg.QoS, c.cfg.RetainSnapshot, b)
}

type readingDTO struct {
	ID          string  `json:"id"`
	Kelvin      float64 `json:"kelvin"`
	Temperature float64 `json:"temperature"`
	Units       string  `json:"units"`
}

type snapshotDTO struct {
	RunID      string       `json:"run_id"`
	Name       string       `json:"name"`
	Running    bool         `json:"running"`
	State      string       `json:"state"`
	Steps      int          `json:"steps"`
	Elapsed    float64      `json:"elapsed_s"`
	Nodes      []readingDTO `json:"nodes"`
	Boundaries []readingDTO `json:"boundaries"`
}

func toDTO(s simulation.Snapshot) snapshotDTO {
	conv := func(rs []simulation.Reading) []readingDTO {
		out := make([]readingDTO, 0, len(rs))
		for _, r := range rs {
			out = append(out, readingDTO{ID: r.ID, Kelvin: r.Kelvin, Temperature: r.Display(), Units: r.Units.String()})
		}
		return out
	}
	return snapshotDTO{
		RunID:      s.RunID,
		Name:       s.Name,
		Running:    s.Running,
		State:      s.State.String(),
		Steps:      s.Steps,
		Elapsed:    s.Elapsed,
		Nodes:      conv(s.Nodes),
		Boundaries: conv(s.Boundaries),
	}
}

// Command payload format: {"value": ...}
type valueReq[T any] struct {
	Value *T `json:"value"`
}

func (c *Controller) onMessage(_ mqtt.Client, msg mqtt.Message) {
	// topic format: <base>/set/<field>[/<id>]
	t := msg.Topic()
	prefix := c.topic("set/")
	if !strings.HasPrefix(t, prefix) {
		return
	}
	field := strings.TrimPrefix(t, prefix)
	payload := msg.Payload()
	entry := c.log.WithField("topic", t)

	switch {
	case field == "running":
		v, err := decodeValueStrict[bool](payload)
		if err != nil {
			entry.WithError(err).Warn("bad running command")
			return
		}
		c.svc.SetRunning(v)

	case strings.HasPrefix(field, "boundary/"):
		id := strings.TrimPrefix(field, "boundary/")
		if id == "" || strings.Contains(id, "/") {
			return
		}
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			entry.WithError(err).Warn("bad boundary command")
			return
		}
		if err := c.svc.SetBoundaryTemperature(id, v); err != nil {
			entry.WithError(err).Warn("boundary update rejected")
		}
	}
}

func (c *Controller) topic(suffix string) string {
	return strings.TrimRight(c.cfg.BaseTopic, "/") + "/" + suffix
}

func decodeValueStrict[T any](b []byte) (T, error) {
	var zero T
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var req valueReq[T]
	if err := dec.Decode(&req); err != nil {
		return zero, err
	}
	if req.Value == nil {
		return zero, errors.New("missing field 'value'")
	}
	return *req.Value, nil
}
