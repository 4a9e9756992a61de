package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/hbraak/solar-display/internal/victron"
)

// NewModbusProbe returns a ProbeFunc that dials host:port and reads the GX
// serial-number register. Anything that answers that read is our device.
func NewModbusProbe(port int, timeout time.Duration) ProbeFunc {
	return func(ctx context.Context, host string) bool {
		if ctx.Err() != nil {
			return false
		}
		client, err := modbus.NewClient(&modbus.ClientConfiguration{
			URL:     fmt.Sprintf("tcp://%s:%d", host, port),
			Timeout: timeout,
		})
		if err != nil {
			return false
		}
		if err := client.Open(); err != nil {
			return false
		}
		defer client.Close()

		if err := client.SetUnitId(victron.SystemUnit); err != nil {
			return false
		}
		_, err = client.ReadRegisters(victron.ProbeRegister, 1, modbus.INPUT_REGISTER)
		return err == nil
	}
}
