package domain

import "fmt"

// DeviceAccessReason distinguishes why microphone access failed.
type DeviceAccessReason string

const (
	// DeviceReasonPermissionDenied means the device or OS refused access.
	DeviceReasonPermissionDenied DeviceAccessReason = "permission_denied"
	// DeviceReasonInsecureContext means the capture backend itself is
	// unavailable, so microphone access cannot be granted at all.
	DeviceReasonInsecureContext DeviceAccessReason = "insecure_context"
)

// DeviceAccessError reports a failure to acquire the audio input device.
type DeviceAccessError struct {
	Reason DeviceAccessReason
	Err    error
}

func (e *DeviceAccessError) Error() string {
	switch e.Reason {
	case DeviceReasonInsecureContext:
		return "Microphone access requires a working audio capture backend."
	default:
		return "Microphone access denied. Please allow microphone access in your system settings."
	}
}

func (e *DeviceAccessError) Unwrap() error { return e.Err }

// GatewayError reports that the parsing service failed or returned
// unusable data.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *GatewayError) Unwrap() error { return e.Err }

// InvalidTypeError reports a gateway result whose type field is outside the
// {Income, Expense} enum.
type InvalidTypeError struct {
	Value string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid transaction type: %q", e.Value)
}

// StorageError reports a persistence read/write failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
