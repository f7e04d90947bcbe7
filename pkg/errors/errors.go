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

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

func (e *DiskWiperError) Error() string {
	// Metadata is left out of Error() deliberately: it's meant for
	// structured consumption (logging, reports), not a one-line message.
	// The one exception is a "stderr" entry, appended as command output.
	msg := fmt.Sprintf("[%s-%d] %s", e.Domain, e.Code, e.Message)
	if e.Details != "" {
		msg += " - " + e.Details
	}
	if e.Metadata != nil {
		if stderr, ok := e.Metadata["stderr"]; ok && stderr != "" {
			msg += "\nCommand output: " + stderr
		}
	}
	return msg
}

func (e *DiskWiperError) WithMetadata(key, value string) *DiskWiperError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// MarshalJSON customizes JSON serialization
func (e *DiskWiperError) MarshalJSON() ([]byte, error) {
	type Alias DiskWiperError
	return json.Marshal(&struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     (*Alias)(e),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// New creates a new DiskWiperError
func New(code ErrorCode, details string) *DiskWiperError {
	def, ok := errorDefinitions[code]
	if !ok {
		return &DiskWiperError{
			Code:       code,
			Domain:     "UNKNOWN",
			Message:    "Unknown error",
			Details:    details,
			HTTPStatus: http.StatusInternalServerError,
		}
	}

	return &DiskWiperError{
		Code:       code,
		Domain:     def.domain,
		Message:    def.message,
		Details:    details,
		HTTPStatus: def.httpStatus,
	}
}

// Is implements the interface for errors.Is
func (e *DiskWiperError) Is(target error) bool {
	if t, ok := target.(*DiskWiperError); ok {
		return e.Code == t.Code && e.Domain == t.Domain
	}
	return false
}

// Is checks if an error matches a sentinel error
func Is(err, target error) bool {
	re, ok := err.(*DiskWiperError)
	if !ok {
		return false
	}
	if t, ok := target.(*DiskWiperError); ok {
		return re.Code == t.Code && re.Domain == t.Domain
	}
	return false
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode) *DiskWiperError {
	if re, ok := err.(*DiskWiperError); ok {
		newErr := New(code, re.Details)
		if re.Metadata != nil {
			for k, v := range re.Metadata {
				newErr.WithMetadata(k, v)
			}
		}
		newErr.WithMetadata("wrapped_code", fmt.Sprintf("%d", re.Code))
		newErr.WithMetadata("wrapped_domain", string(re.Domain))
		newErr.WithMetadata("wrapped_message", re.Message)
		return newErr
	}
	return New(code, err.Error())
}

// Unwrap implements the interface for errors.Unwrap
func (e *DiskWiperError) Unwrap() error {
	if e.Metadata != nil {
		if originalErr, ok := e.Metadata["wrapped_error"]; ok {
			return fmt.Errorf("%s", originalErr)
		}
	}
	return nil
}

// IsDiskWiperError checks if an error is a DiskWiperError
func IsDiskWiperError(err error) bool {
	_, ok := err.(*DiskWiperError)
	return ok
}

func NewCommandError(cmd string, exitCode int, stderr string) *DiskWiperError {
	return New(CommandExecution, "Command execution failed").
		WithMetadata("command", cmd).
		WithMetadata("exit_code", fmt.Sprintf("%d", exitCode)).
		WithMetadata("stderr", stderr)
}

// GetCode extracts the error code from an error if it's a DiskWiperError
func GetCode(err error) (ErrorCode, bool) {
	if err == nil {
		return 0, false
	}
	if re, ok := err.(*DiskWiperError); ok {
		return re.Code, true
	}
	var diskwiperErr *DiskWiperError
	if errors.As(err, &diskwiperErr) {
		return diskwiperErr.Code, true
	}
	return 0, false
}

// GetErrorWithCode returns the first DiskWiperError in the error chain with the specified code
func GetErrorWithCode(err error, code ErrorCode) *DiskWiperError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*DiskWiperError); ok && re.Code == code {
		return re
	}
	var diskwiperErr *DiskWiperError
	if errors.As(err, &diskwiperErr) && diskwiperErr.Code == code {
		return diskwiperErr
	}
	return nil
}
