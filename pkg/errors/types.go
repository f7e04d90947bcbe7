/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package errors

const (
	DomainConfig    Domain = "CONFIG"
	DomainCommand   Domain = "CMD"
	DomainHealth    Domain = "HEALTH"
	DomainLifecycle Domain = "LIFECYCLE"
	DomainMisc      Domain = "MISC"
	DomainSystem    Domain = "SYSTEM"
	DomainProbe     Domain = "PROBE"
	DomainGuard     Domain = "GUARD"
	DomainInventory Domain = "INVENTORY"
	DomainWipe      Domain = "WIPE"
	DomainReport    Domain = "REPORT"
	DomainCoord     Domain = "COORD"
)

// ErrorCode represents unique error identifiers
type ErrorCode int

// Domain represents the subsystem where the error originated
type Domain string

type DiskWiperError struct {
	Code    ErrorCode `json:"code"`
	Domain  Domain    `json:"domain"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`

	HTTPStatus int `json:"-"`

	// Metadata carries contextual key/value pairs: device path, log id,
	// underlying command output. Included in JSON responses and logging,
	// omitted from Error()'s short message except for a "stderr" entry.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Error code ranges:
// 1000-1099: Configuration errors
// 1300-1399: Command execution
// 1400-1499: Health check
// 1500-1599: Lifecycle management
// 1600-1699: Miscellaneous
// 1750-1799: System / privilege errors
// 2100-2199: Platform probe
// 2200-2299: Boot-disk guard
// 2300-2399: Inventory service
// 2400-2499: Wipe engine
// 2500-2599: Report projector
// 2600-2699: Request coordinator
const (
	// Configuration Errors (1000-1099)
	ConfigNotFound           = 1000 + iota // Config file not found
	ConfigInvalid                          // Invalid config format
	ConfigLoadFailed                       // Failed to load config
	ConfigWriteFailed                      // Failed to write config
	ConfigPermissionDenied                 // Permission denied accessing config
	ConfigDirectoryError                   // Config directory error
	ConfigValidationFailed                 // Config validation failed
	ConfigMarshalFailed                    // Config serialization failed
	ConfigUnmarshalFailed                  // Config deserialization failed
	ConfigHomeDirectoryError               // Error getting home directory
	ConfigReadError                        // Error reading config
	ConfigWriteError                       // Error writing config
	ConfigParseError                       // Error parsing config
)

const (
	// Command Execution (1300-1399)
	CommandNotFound     = 1300 + iota // Command not found
	CommandExecution                  // Execution failed
	CommandTimeout                    // Command timed out
	CommandPermission                 // Permission denied
	CommandInvalidInput               // Invalid command input
	CommandOutputParse                // Output parsing failed
	CommandSignal                     // Signal handling failed
	CommandContext                    // Context handling error
	CommandPipe                       // Command pipe error
	CommandWorkDir                    // Working directory error
)

const (
	// Health Check (1400-1499)
	HealthCheckFailed     = 1400 + iota // Health check failed
	HealthCheckTimeout                  // Health check timed out
	HealthCheckComponent                // Component check failed
	HealthCheckConfig                   // Health check config error
)

const (
	// Lifecycle Management (1500-1599)
	LifecyclePID      = 1500 + iota // PID file operation failed
	LifecycleShutdown               // Shutdown process error
	LifecycleSignal                 // Signal handling error
	LifecycleReload                 // Config reload failed
	LifecycleHook                   // Lifecycle hook error
)

const (
	// Miscellaneous (1600-1699)
	RodentMisc = 1600 + iota // Miscellaneous program error
	FSError
	NotFoundError // Not found error
	LoggerError   // Logger error
)

const (
	// System / privilege errors (1750-1799)
	OperationFailed  = 1750 + iota // Generic operation failed
	PermissionDenied               // Permission denied
)

const (
	// Platform probe errors (2100-2199)
	ProbeEnumerationFailed = 2100 + iota // Device enumeration subprocess failed
	ProbeSMARTReadFailed                 // SMART readout failed (non-fatal)
	ProbeToolUnavailable                 // Required probing tool not found on PATH
	ProbeTimeout                         // Probe subprocess exceeded its timeout
)

const (
	// Boot-disk guard errors (2200-2299)
	GuardRefused      = 2200 + iota // Device classified as boot disk, refused
	GuardProbeFailed                // Underlying probe failed; fail-closed refusal
	GuardDeviceAbsent               // Device not present in probe result; fail-closed refusal
)

const (
	// Inventory service errors (2300-2399)
	InventorySerialMissing = 2300 + iota // No serial; synthetic identifier used
	InventoryPersistFailed               // Reconciled records failed to persist
	InventoryDeviceNotFound
)

const (
	// Wipe engine errors (2400-2499)
	WipeValidationFailed  = 2400 + iota // Unknown method or passes out of range
	WipeConflict                       // Device already has an active wipe
	WipeDeviceFilledOK                 // Not an error: end-of-device reached
	WipeWriteError                     // Generic I/O failure mid-pass
	WipeVerificationFailed             // bsi verification found no random sample
	WipeStartFailed                    // Failure before worker spawn
	WipeNotFound                       // Unknown log id
)

const (
	// Report projector errors (2500-2599)
	ReportLogNotFound = 2500 + iota
	ReportRenderFailed
)

const (
	// Request coordinator errors (2600-2699)
	CoordUnknownMethod = 2600 + iota
	CoordPassesOutOfRange
)

var errorDefinitions = map[ErrorCode]struct {
	message    string
	domain     Domain
	httpStatus int
}{
	OperationFailed:   {"Operation failed", DomainSystem, 500},
	PermissionDenied:  {"Permission denied", DomainSystem, 403},

	ConfigNotFound:           {"Configuration file not found", DomainConfig, 404},
	ConfigInvalid:            {"Invalid configuration format", DomainConfig, 400},
	ConfigLoadFailed:         {"Failed to load configuration", DomainConfig, 500},
	ConfigWriteFailed:        {"Failed to write configuration", DomainConfig, 500},
	ConfigPermissionDenied:   {"Permission denied accessing config", DomainConfig, 403},
	ConfigDirectoryError:     {"Config directory error", DomainConfig, 500},
	ConfigValidationFailed:   {"Configuration validation failed", DomainConfig, 400},
	ConfigMarshalFailed:      {"Failed to serialize configuration", DomainConfig, 500},
	ConfigUnmarshalFailed:    {"Failed to deserialize configuration", DomainConfig, 500},
	ConfigHomeDirectoryError: {"Failed to get home directory", DomainConfig, 500},
	ConfigReadError:          {"Error reading configuration", DomainConfig, 500},
	ConfigWriteError:         {"Error writing configuration", DomainConfig, 500},
	ConfigParseError:         {"Error parsing configuration", DomainConfig, 500},

	CommandNotFound:     {"Command not found", DomainCommand, 404},
	CommandExecution:    {"Command execution failed", DomainCommand, 400},
	CommandTimeout:      {"Command execution timed out", DomainCommand, 504},
	CommandPermission:   {"Permission denied executing command", DomainCommand, 403},
	CommandInvalidInput: {"Invalid command input", DomainCommand, 400},
	CommandOutputParse:  {"Failed to parse command output", DomainCommand, 500},
	CommandSignal:       {"Command signal handling failed", DomainCommand, 500},
	CommandContext:      {"Command context error", DomainCommand, 500},
	CommandPipe:         {"Command pipe operation failed", DomainCommand, 500},
	CommandWorkDir:      {"Working directory error", DomainCommand, 500},

	HealthCheckFailed:    {"Health check failed", DomainHealth, 503},
	HealthCheckTimeout:   {"Health check timed out", DomainHealth, 504},
	HealthCheckComponent: {"Component health check failed", DomainHealth, 503},
	HealthCheckConfig:    {"Health check configuration error", DomainHealth, 500},

	LifecyclePID:      {"PID file operation failed", DomainLifecycle, 500},
	LifecycleShutdown: {"Error during shutdown process", DomainLifecycle, 500},
	LifecycleSignal:   {"Signal handling error", DomainLifecycle, 500},
	LifecycleReload:   {"Configuration reload failed", DomainLifecycle, 500},
	LifecycleHook:     {"Lifecycle hook execution failed", DomainLifecycle, 500},

	RodentMisc:    {"Miscellaneous program error", DomainMisc, 500},
	FSError:       {"Filesystem error", DomainMisc, 500},
	NotFoundError: {"Not found", DomainMisc, 404},
	LoggerError:   {"Logger error", DomainMisc, 500},

	ProbeEnumerationFailed: {"Device enumeration failed", DomainProbe, 500},
	ProbeSMARTReadFailed:   {"SMART readout failed", DomainProbe, 200},
	ProbeToolUnavailable:   {"Required probing tool not found", DomainProbe, 500},
	ProbeTimeout:           {"Probe subprocess timed out", DomainProbe, 504},

	GuardRefused:      {"Device classified as boot disk, refusing", DomainGuard, 403},
	GuardProbeFailed:  {"Probe failed; refusing as a fail-closed precaution", DomainGuard, 403},
	GuardDeviceAbsent: {"Device not present in probe result; refusing", DomainGuard, 403},

	InventorySerialMissing: {"No serial number reported; using synthetic identifier", DomainInventory, 200},
	InventoryPersistFailed: {"Failed to persist reconciled device records", DomainInventory, 500},
	InventoryDeviceNotFound: {"Device record not found", DomainInventory, 404},

	WipeValidationFailed:   {"Invalid wipe request", DomainWipe, 400},
	WipeConflict:           {"Device already has an active wipe", DomainWipe, 409},
	WipeDeviceFilledOK:     {"Device filled; pass complete", DomainWipe, 200},
	WipeWriteError:         {"I/O error during wipe", DomainWipe, 500},
	WipeVerificationFailed: {"Verification probe found no random sample", DomainWipe, 200},
	WipeStartFailed:        {"Failed to start wipe", DomainWipe, 500},
	WipeNotFound:           {"Wipe log not found", DomainWipe, 404},

	ReportLogNotFound:  {"Wipe log not found for report", DomainReport, 404},
	ReportRenderFailed: {"Failed to render report", DomainReport, 500},

	CoordUnknownMethod:   {"Unknown wipe method", DomainCoord, 400},
	CoordPassesOutOfRange: {"Passes out of range [1, 10]", DomainCoord, 400},
}
