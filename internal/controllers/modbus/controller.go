package modbusctrl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	mbserver "github.com/tbrandon/mbserver"

	"github.com/Agrid-Dev/thermograph/internal/ports"
	"github.com/Agrid-Dev/thermograph/internal/simulation"
)

// Register map:
//
//	coil 0               running flag (read 1, write 5)
//	input register i     stepped node i temperature, K x TemperatureScale (read 4)
//	holding register i   boundary i temperature, K x TemperatureScale (read 3, write 6/16)
//
// Indices follow snapshot order, which is scenario declaration order.
type Config struct {
	RunID  string
	Addr   string
	UnitID byte // UnitID (Modbus slave/unit ID). Use an integer 1..247.
}

type Controller struct {
	svc ports.SimulationService
	cfg Config
	log *log.Entry

	serv *mbserver.Server
}

func New(svc ports.SimulationService, cfg Config) (*Controller, error) {
	if cfg.UnitID == 0 {
		return nil, errors.New("modbus: UnitID is required (non-zero)")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:1502"
	}
	return &Controller{
		svc: svc,
		cfg: cfg,
		log: log.WithFields(log.Fields{"component": "modbus", "run_id": cfg.RunID}),
	}, nil
}

// Run starts the Modbus server and registers handlers that read from and
// write to the simulation service directly. It blocks until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	serv := mbserver.NewServer()
	c.serv = serv

	// Register handlers BEFORE starting the TCP listener to avoid races inside mbserver
	// between handler registration and the server's goroutines.
	serv.RegisterFunctionHandler(1, c.readCoils)
	serv.RegisterFunctionHandler(3, c.readHolding)
	serv.RegisterFunctionHandler(4, c.readInput)
	serv.RegisterFunctionHandler(5, c.writeCoil)
	serv.RegisterFunctionHandler(6, c.writeRegister)
	serv.RegisterFunctionHandler(16, c.writeRegisters)

	if err := serv.ListenTCP(c.cfg.Addr); err != nil {
		return fmt.Errorf("mbserver listen tcp %s: %w", c.cfg.Addr, err)
	}
	c.log.WithField("addr", c.cfg.Addr).Info("modbus controller listening")

	<-ctx.Done()
	serv.Close()
	return ctx.Err()
}

// Read Coils (function 1): coil 0 is the running flag.
func (c *Controller) readCoils(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, ok := readRange(frame.GetData())
	if !ok || qty > 2000 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	if start != 0 || qty != 1 {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	coil := byte(0)
	if c.svc.Get().Running {
		coil = 0x01
	}
	// byte count (1) + coil bytes
	return []byte{1, coil}, &mbserver.Success
}

// Read Holding Registers (function 3): boundary temperatures.
func (c *Controller) readHolding(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	return readTemperatures(frame, c.svc.Get().Boundaries)
}

// Read Input Registers (function 4): stepped node temperatures.
func (c *Controller) readInput(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	return readTemperatures(frame, c.svc.Get().Nodes)
}

// Write Single Coil (function 5): running flag.
func (c *Controller) writeCoil(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])

	if addr != 0 {
		return []byte{}, &mbserver.IllegalDataAddress
	}

	var running bool
	switch value {
	case 0x0000:
		running = false
	case 0xFF00:
		running = true
	default:
		return []byte{}, &mbserver.IllegalDataValue
	}

	c.svc.SetRunning(running)

	// echo request (address + value)
	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

// Write Single Register (function 6): one boundary temperature.
func (c *Controller) writeRegister(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := int(binary.BigEndian.Uint16(data[0:2]))
	value := binary.BigEndian.Uint16(data[2:4])

	boundaries := c.svc.Get().Boundaries
	if addr >= len(boundaries) {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	if exc := c.setBoundary(boundaries[addr].ID, value); exc != nil {
		return []byte{}, exc
	}

	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

// Write Multiple Registers (function 16): a contiguous run of boundaries.
func (c *Controller) writeRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	d := frame.GetData()
	if len(d) < 5 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	start := binary.BigEndian.Uint16(d[0:2])
	quantity := binary.BigEndian.Uint16(d[2:4])
	byteCount := int(d[4])
	if quantity == 0 || byteCount != int(quantity)*2 || len(d) < 5+byteCount {
		return []byte{}, &mbserver.IllegalDataValue
	}

	boundaries := c.svc.Get().Boundaries
	if int(start)+int(quantity) > len(boundaries) {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	for i := 0; i < int(quantity); i++ {
		val := binary.BigEndian.Uint16(d[5+i*2 : 5+i*2+2])
		if exc := c.setBoundary(boundaries[int(start)+i].ID, val); exc != nil {
			return []byte{}, exc
		}
	}

	resp := make([]byte, 4)
	binary.BigEndian.PutUint16(resp[0:2], start)
	binary.BigEndian.PutUint16(resp[2:4], quantity)
	return resp, &mbserver.Success
}

func (c *Controller) setBoundary(id string, raw uint16) *mbserver.Exception {
	k := decodeTemp(raw)
	if err := c.svc.SetBoundaryTemperature(id, k); err != nil {
		c.log.WithError(err).WithFields(log.Fields{"boundary": id, "kelvin": k}).Warn("boundary write rejected")
		if errors.Is(err, simulation.ErrUnknownBoundary) {
			return &mbserver.IllegalDataAddress
		}
		return &mbserver.IllegalDataValue
	}
	return nil
}

func readRange(data []byte) (start, qty int, ok bool) {
	if len(data) < 4 {
		return 0, 0, false
	}
	start = int(binary.BigEndian.Uint16(data[0:2]))
	qty = int(binary.BigEndian.Uint16(data[2:4]))
	return start, qty, qty > 0
}

func readTemperatures(frame mbserver.Framer, rs []simulation.Reading) ([]byte, *mbserver.Exception) {
	start, qty, ok := readRange(frame.GetData())
	if !ok || qty > 125 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	if start+qty > len(rs) {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	// byte count + register bytes
	byteCount := qty * 2
	resp := make([]byte, 1+byteCount)
	resp[0] = byte(byteCount)
	for i := 0; i < qty; i++ {
		binary.BigEndian.PutUint16(resp[1+i*2:1+i*2+2], encodeTemp(rs[start+i].Kelvin))
	}
	return resp, &mbserver.Success
}

// TemperatureScale keeps one decimal of Kelvin; 6553.5 K is the ceiling,
// which still covers a 5800 K solar boundary.
const TemperatureScale int = 10

func encodeTemp(kelvin float64) uint16 {
	r := min(max(int(math.Round(kelvin*float64(TemperatureScale))), 0), math.MaxUint16)
	return uint16(r)
}

func decodeTemp(u uint16) float64 {
	return float64(u) / float64(TemperatureScale)
}
