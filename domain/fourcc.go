package domain

import (
	"encoding/binary"
	"fmt"
)

// FourCC is a four character code as used by the host for enumerations.
type FourCC string

// Task types.
const (
	TaskTypeStandard  FourCC = "OPTS"
	TaskTypeMilestone FourCC = "OPTM"
	TaskTypeGroup     FourCC = "OPTG"
	TaskTypeHammock   FourCC = "OPTH"
)

// Task statuses.
const (
	TaskStatusCloseToDueDate FourCC = "OPTc"
	TaskStatusDueNow         FourCC = "OPTd"
	TaskStatusFinished       FourCC = "OPTm"
	TaskStatusOK             FourCC = "OPTo"
	TaskStatusPastDue        FourCC = "OPTp"
)

// FourCCFromValue unpacks a big-endian signed 32 bit value into its code.
func FourCCFromValue(value int32) FourCC {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(value))
	return FourCC(buf[:])
}

// Value packs the code into a big-endian signed 32 bit value.
func (c FourCC) Value() (int32, error) {
	if len(c) != 4 {
		return 0, fmt.Errorf("four character code %q must be exactly 4 bytes", string(c))
	}
	return int32(binary.BigEndian.Uint32([]byte(c))), nil
}
