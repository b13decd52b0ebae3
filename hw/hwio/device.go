package hwio

// Device is a BankIO8 whose whole address range is handled by callbacks,
// for areas with custom decoding such as nametables or palette RAM.
type Device struct {
	Name  string
	Size  int
	Flags RWFlags

	ReadCb  func(addr uint16) uint8
	PeekCb  func(addr uint16) uint8 // optional, ReadCb is used if nil
	WriteCb func(addr uint16, val uint8)
}

func (d *Device) Read8(addr uint16, peek bool) uint8 {
	if !d.Flags.readable("device", d.Name, addr, peek) {
		return 0
	}
	if peek && d.PeekCb != nil {
		return d.PeekCb(addr)
	}
	if d.ReadCb == nil {
		return 0
	}
	return d.ReadCb(addr)
}

func (d *Device) Write8(addr uint16, val uint8) {
	if d.Flags.writable("device", d.Name, addr, val) && d.WriteCb != nil {
		d.WriteCb(addr, val)
	}
}
