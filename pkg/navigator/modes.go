package navigator

import "fmt"

type AudioGuidance uint8

const (
	SILENT AudioGuidance = iota
	VOICE_ALERTS_ONLY
	VOICE_ALERTS_AND_GUIDANCE
)

func (a AudioGuidance) String() string {
	switch a {
	case SILENT:
		return "silent"
	case VOICE_ALERTS_ONLY:
		return "voice_alerts_only"
	case VOICE_ALERTS_AND_GUIDANCE:
		return "voice_alerts_and_guidance"
	}
	return fmt.Sprintf("audio_guidance(%d)", a)
}

type TaskRemovedBehavior uint8

const (
	CONTINUE_SERVICE TaskRemovedBehavior = iota
	QUIT_SERVICE
)

func (b TaskRemovedBehavior) String() string {
	if b == QUIT_SERVICE {
		return "quit_service"
	}
	return "continue_service"
}

type InitErrorCode int

const (
	NOT_AUTHORIZED InitErrorCode = iota + 1
	TERMS_NOT_ACCEPTED
	NETWORK_ERROR
	LOCATION_PERMISSION_MISSING
)

// InitErrorMessage is the advisory shown when a navigator cannot be obtained.
func InitErrorMessage(code InitErrorCode) string {
	switch code {
	case NOT_AUTHORIZED:
		return "Error : Your API key is invalid or not authorized to use Navigation."
	case TERMS_NOT_ACCEPTED:
		return "Error: User did not accept the Navigation Terms of Use."
	}
	return fmt.Sprintf("Error loading the Navigation SDK: %d", int(code))
}

// InitError is returned by navigator constructors that fail before any route is requested.
type InitError struct {
	Code InitErrorCode
	Err  error
}

func (e *InitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", InitErrorMessage(e.Code), e.Err)
	}
	return InitErrorMessage(e.Code)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
