// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package registers

// Address is an index into the device register space. Every register holds
// 16 bits.
type Address uint32

// Register map
const (
	// Registers 0..6 are read-only RAM (map version, device id, version,
	// fail and warn codes).
	CommandRegister Address = 7
	ProfilesBase    Address = 8
	MaxAddress      Address = 548
)

// DeviceCommand is a value written to the command register.
type DeviceCommand uint16

const (
	CmdNop        DeviceCommand = 0
	CmdReboot     DeviceCommand = 1
	CmdEraseFlash DeviceCommand = 2
	CmdUpdateCRC  DeviceCommand = 3
)

func (c DeviceCommand) String() string {
	switch c {
	case CmdNop:
		return "NOP"
	case CmdReboot:
		return "REBOOT"
	case CmdEraseFlash:
		return "ERASE_FLASH"
	case CmdUpdateCRC:
		return "UPDATE_CRC"
	default:
		return "UNKNOWN"
	}
}

// Value limits
const (
	MaxU16Value = 0xFFFF

	// MaxU32Value is the largest value the two-register encoding can carry.
	// The high register holds value>>8, so anything above 24 bits would
	// overflow it.
	MaxU32Value = 0xFFFFFF

	// StringBytes is the fixed width of a packed string field.
	StringBytes = 18
	// StringRegisters is the register footprint of a packed string field.
	StringRegisters = StringBytes / 2
)
