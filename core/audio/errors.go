package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrPlaybackNotAllowed is returned by players when the platform refuses
	// to start audio until the user interacts with the client.
	ErrPlaybackNotAllowed = errors.New("playback not allowed without user gesture")
	ErrUnsupportedClip    = errors.New("unsupported clip format")
	ErrClipReleased       = errors.New("clip released")
)

// Media access errors reported by capture devices.
var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrDeviceNotFound   = errors.New("microphone not found")
	ErrAborted          = errors.New("microphone request aborted")
	ErrDeviceBusy       = errors.New("microphone not readable")
	ErrOverconstrained  = errors.New("microphone constraints not satisfiable")
	ErrInsecureContext  = errors.New("microphone blocked by security policy")
	ErrInvalidRequest   = errors.New("invalid media request")
)

// MediaErrorMessage turns a capture failure into a message for the user.
func MediaErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone access was denied. Allow microphone access for this application and try again."
	case errors.Is(err, ErrDeviceNotFound):
		return "No microphone was detected. Make sure your device has a working microphone."
	case errors.Is(err, ErrAborted):
		return "The microphone request was aborted."
	case errors.Is(err, ErrDeviceBusy):
		return "The microphone could not be read. It may be in use by another application."
	case errors.Is(err, ErrOverconstrained):
		return "The microphone cannot satisfy the requested capture parameters."
	case errors.Is(err, ErrInsecureContext):
		return "Microphone use is blocked by the security policy. Use a secure connection."
	case errors.Is(err, ErrInvalidRequest):
		return "The media request parameters are invalid."
	case err == nil:
		return "Cannot access the microphone."
	default:
		return fmt.Sprintf("Microphone access error: %v. Make sure microphone access is allowed.", err)
	}
}
