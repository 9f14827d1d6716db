package modbusctrl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	mbserver "github.com/tbrandon/mbserver"

	"github.com/Agrid-Dev/radiantctl/internal/ports"
	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

// RegistersPerZone is the size of one zone's holding register block.
const RegistersPerZone = 8

// Holding register offsets inside a zone block.
const (
	regSetpoint = iota
	regMode
	regColdWater
	regHotWater
	regCoolingError
	regHeatingError
	regMaxCtrlTemp
	regMinCtrlTemp
)

// Config for the Modbus controller.
type Config struct {
	Addr   string
	UnitID byte // UnitID (Modbus slave/unit ID). Use an integer 1..247.
}

// Controller exposes a read-only register map of the building. Zone blocks are
// laid out in snapshot order: zone i starts at holding register i*RegistersPerZone.
type Controller struct {
	svc ports.ZoneService
	cfg Config
	log *slog.Logger

	serv *mbserver.Server
}

func New(svc ports.ZoneService, cfg Config, logger *slog.Logger) (*Controller, error) {
	if cfg.UnitID == 0 {
		return nil, errors.New("modbus: UnitID is required (non-zero)")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:1502"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{svc: svc, cfg: cfg, log: logger.With("controller", "modbus")}, nil
}

// Run starts the Modbus server and serves reads directly from the zone service.
// It blocks until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	serv := mbserver.NewServer()
	c.serv = serv

	// Register handlers BEFORE starting the TCP listener to avoid races inside mbserver
	// between handler registration and the server's goroutines.
	serv.RegisterFunctionHandler(1, c.readCoils)
	serv.RegisterFunctionHandler(3, c.readHoldingRegisters)
	serv.RegisterFunctionHandler(4, c.readInputRegisters)

	// Writes: the register map is read-only.
	for _, fn := range []uint8{5, 6, 15, 16} {
		serv.RegisterFunctionHandler(fn, func(*mbserver.Server, mbserver.Framer) ([]byte, *mbserver.Exception) {
			return []byte{}, &mbserver.IllegalFunction
		})
	}

	if err := serv.ListenTCP(c.cfg.Addr); err != nil {
		return fmt.Errorf("mbserver listen tcp %s: %w", c.cfg.Addr, err)
	}
	c.log.Info("modbus listening", "addr", c.cfg.Addr, "unit_id", c.cfg.UnitID)

	<-ctx.Done()
	serv.Close()
	return ctx.Err()
}

// readCoils (function 1) exposes coil 0: the design-day flag of the current timestep.
func (c *Controller) readCoils(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, ex := readRange(frame, 2000)
	if ex != nil {
		return []byte{}, ex
	}
	if start != 0 || qty != 1 {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	coilByte := byte(0)
	if c.svc.Snapshot().Calendar.DesignDay {
		coilByte = 0x01
	}
	// response: byte count (1) + coil bytes
	return []byte{1, coilByte}, &mbserver.Success
}

// readHoldingRegisters (function 3) exposes the per-zone blocks.
func (c *Controller) readHoldingRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, ex := readRange(frame, 125)
	if ex != nil {
		return []byte{}, ex
	}
	zones := c.svc.Snapshot().Zones
	if start+qty > len(zones)*RegistersPerZone {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	regs := make([]uint16, 0, qty)
	for addr := start; addr < start+qty; addr++ {
		regs = append(regs, zoneRegister(zones[addr/RegistersPerZone], addr%RegistersPerZone))
	}
	return registerResponse(regs), &mbserver.Success
}

// readInputRegisters (function 4) exposes IR 0: the building 24h outdoor mean.
func (c *Controller) readInputRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, ex := readRange(frame, 125)
	if ex != nil {
		return []byte{}, ex
	}
	if start != 0 || qty != 1 {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	return registerResponse([]uint16{encodeTemp(c.svc.Snapshot().OutdoorMean)}), &mbserver.Success
}

func zoneRegister(z radiant.Snapshot, offset int) uint16 {
	switch offset {
	case regSetpoint:
		return encodeTemp(z.SlabSetpoint)
	case regMode:
		return uint16(int16(z.Mode))
	case regColdWater:
		return encodeTemp(z.Actuators.ColdWater)
	case regHotWater:
		return encodeTemp(z.Actuators.HotWater)
	case regCoolingError:
		return encodeTemp(z.CoolingError)
	case regHeatingError:
		return encodeTemp(z.HeatingError)
	case regMaxCtrlTemp:
		return encodeTemp(z.MaxCtrlTemp)
	case regMinCtrlTemp:
		return encodeTemp(z.MinCtrlTemp)
	}
	return 0
}

func readRange(frame mbserver.Framer, maxQty int) (int, int, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return 0, 0, &mbserver.IllegalDataValue
	}
	start := int(binary.BigEndian.Uint16(data[0:2]))
	qty := int(binary.BigEndian.Uint16(data[2:4]))
	if qty == 0 || qty > maxQty {
		return 0, 0, &mbserver.IllegalDataValue
	}
	return start, qty, nil
}

// registerResponse builds byte count + big-endian register bytes.
func registerResponse(regs []uint16) []byte {
	byteCount := len(regs) * 2
	resp := make([]byte, 1+byteCount)
	resp[0] = byte(byteCount)
	for i, r := range regs {
		binary.BigEndian.PutUint16(resp[1+i*2:1+i*2+2], r)
	}
	return resp
}

const TemperatureScale int = 100

func encodeTemp(v float64) uint16 {
	r := min(max(int(math.Round(v*float64(TemperatureScale))), math.MinInt16), math.MaxInt16)
	return uint16(int16(r))
}

func decodeTemp(u uint16) float64 {
	i := int16(u)
	return float64(i) / float64(TemperatureScale)
}
