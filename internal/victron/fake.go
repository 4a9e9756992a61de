package victron

import "fmt"

type regKey struct {
	unit uint8
	addr uint16
}

// FakeWrite records one register write seen by a FakeTransport.
type FakeWrite struct {
	Unit  uint8
	Addr  uint16
	Value uint16
}

// FakeTransport is a scripted Transport for tests. NewFakeTransport seeds a
// plausible sunny-afternoon register map so tests only override what they
// care about. Writes are applied to the map, so a switched relay shows up in
// the next read.
type FakeTransport struct {
	OpenErr  error
	ReadErr  error
	WriteErr error

	Opens  int
	Closes int
	Reads  []regKey
	Writes []FakeWrite

	regs map[regKey][]uint16
}

func NewFakeTransport() *FakeTransport {
	f := &FakeTransport{regs: make(map[regKey][]uint16)}
	f.Set(SystemUnit, regPVPower, 3170)
	f.Set(SystemUnit, regBatteryBlock, 512, 88, 450, 87, 1)
	f.Set(SystemUnit, regACLoadBlock, 300, 150, 220)
	f.Set(SystemUnit, regMultiplusRelay, 1)
	f.Set(SystemUnit, regGeneratorRelay, 0)
	f.Set(225, regBatterySoH, 998)
	for _, unit := range []uint8{238, 239, 226, 224, 223} {
		f.Set(unit, regYieldToday, 37)
	}
	return f
}

// Set scripts the words returned for reads starting at addr on unit.
func (f *FakeTransport) Set(unit uint8, addr uint16, words ...uint16) {
	f.regs[regKey{unit, addr}] = words
}

// Unset removes a register span, making reads of it fail.
func (f *FakeTransport) Unset(unit uint8, addr uint16) {
	delete(f.regs, regKey{unit, addr})
}

func (f *FakeTransport) Open() error {
	if f.OpenErr != nil {
		return f.OpenErr
	}
	f.Opens++
	return nil
}

func (f *FakeTransport) Close() error {
	f.Closes++
	return nil
}

func (f *FakeTransport) ReadInputRegisters(unitID uint8, addr uint16, quantity uint16) ([]uint16, error) {
	f.Reads = append(f.Reads, regKey{unitID, addr})
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	words, ok := f.regs[regKey{unitID, addr}]
	if !ok || len(words) < int(quantity) {
		return nil, fmt.Errorf("fake: no register %d on unit %d", addr, unitID)
	}
	return words[:quantity], nil
}

func (f *FakeTransport) WriteRegister(unitID uint8, addr uint16, value uint16) error {
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.Writes = append(f.Writes, FakeWrite{Unit: unitID, Addr: addr, Value: value})
	f.regs[regKey{unitID, addr}] = []uint16{value}
	return nil
}
