package victron

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
)

// Transport is the wire-level register access the Link needs. The production
// implementation speaks Modbus TCP; tests substitute a FakeTransport.
type Transport interface {
	Open() error
	Close() error
	// ReadInputRegisters reads quantity consecutive input registers from
	// the given unit.
	ReadInputRegisters(unitID uint8, addr uint16, quantity uint16) ([]uint16, error)
	// WriteRegister writes a single holding register on the given unit.
	WriteRegister(unitID uint8, addr uint16, value uint16) error
}

// ModbusTransport is the production Transport, a thin wrapper that pins the
// unit id before each transaction.
type ModbusTransport struct {
	client *modbus.ModbusClient
}

// NewModbusTransport prepares a Modbus TCP client for the given endpoint.
// The connection itself is only established by Open.
func NewModbusTransport(host string, port int, timeout time.Duration) (*ModbusTransport, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", host, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring modbus client for %s:%d: %w", host, port, err)
	}
	return &ModbusTransport{client: client}, nil
}

func (t *ModbusTransport) Open() error {
	return t.client.Open()
}

func (t *ModbusTransport) Close() error {
	return t.client.Close()
}

func (t *ModbusTransport) ReadInputRegisters(unitID uint8, addr uint16, quantity uint16) ([]uint16, error) {
	if err := t.client.SetUnitId(unitID); err != nil {
		return nil, err
	}
	return t.client.ReadRegisters(addr, quantity, modbus.INPUT_REGISTER)
}

func (t *ModbusTransport) WriteRegister(unitID uint8, addr uint16, value uint16) error {
	if err := t.client.SetUnitId(unitID); err != nil {
		return err
	}
	return t.client.WriteRegister(addr, value)
}
