// internal/status/constants.go
package status

// Code is the externally reported status of one role or of the module.
type Code string

const (
	Connecting        Code = "connecting"
	OK                Code = "ok"
	BadConfig         Code = "bad_config"
	ConnectionFailure Code = "connection_failure"
	Disconnected      Code = "disconnected"
	UnknownWarning    Code = "unknown_warning"
	UnknownError      Code = "unknown_error"
)

// Status Block layout constants for the register mirror.
// These values define the mirror layout and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerBlock is the fixed number of registers per mirrored module.
const SlotsPerBlock = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the module health (see Health* below).
const SlotHealthCode = 0

// SlotStatusCode holds the detailed status Code (see RegisterCode).
const SlotStatusCode = 1

// SlotSecondsInError holds how long the module has been not-OK.
const SlotSecondsInError = 2

// SlotPrimaryState and SlotSecondaryState hold EngineStateCode values.
const SlotPrimaryState = 3
const SlotSecondaryState = 4

// SlotFlags packs redundant/emulator bits for both roles.
const SlotFlags = 5

// Slots 6–10 are reserved.
const SlotReservedStart = 6
const SlotReservedEnd = 10

// ---- NAME ----

// SlotNameStart is the first slot of the ASCII name. The name always
// sits at the END of the block.
const SlotNameStart = 11

// SlotNameSlots is the number of registers reserved for the name.
const SlotNameSlots = 8

// SlotNameEnd is the last name slot (inclusive).
const SlotNameEnd = SlotNameStart + SlotNameSlots - 1

// NameMaxChars is the maximum number of ASCII characters stored.
const NameMaxChars = 16

// ---- HEALTH CODES ----

const (
	HealthUnknown uint16 = 0
	HealthOK      uint16 = 1
	HealthError   uint16 = 2
	HealthWarning uint16 = 3
	HealthOffline uint16 = 4
)

// ---- FLAG BITS ----

const (
	FlagPrimaryRedundant   uint16 = 1 << 0
	FlagPrimaryEmulator    uint16 = 1 << 1
	FlagSecondaryRedundant uint16 = 1 << 2
	FlagSecondaryEmulator  uint16 = 1 << 3
)
