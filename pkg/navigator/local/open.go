package local

import (
	"errors"

	"github.com/lintang-b-s/navguide/pkg/navigator"
	"github.com/lintang-b-s/navguide/pkg/permission"
	"go.uber.org/zap"
)

var ErrTermsNotAccepted = errors.New("navigation terms of use not accepted")

// Session describes the conditions under which a navigator may be obtained.
type Session struct {
	TermsAccepted bool
	Permissions   permission.Checker
	// PlatformLevel selects which runtime permissions are required.
	PlatformLevel int
}

// Open checks the session and returns a navigator. Failures are *navigator.InitError so the
// caller can show navigator.InitErrorMessage. A nil provider means the engine is not
// configured and is reported as NOT_AUTHORIZED.
func Open(session Session, provider RouteProvider, resolver PlaceResolver, log *zap.Logger,
	opts ...Option) (*Navigator, error) {
	if provider == nil {
		return nil, &navigator.InitError{Code: navigator.NOT_AUTHORIZED}
	}
	if !session.TermsAccepted {
		return nil, &navigator.InitError{Code: navigator.TERMS_NOT_ACCEPTED, Err: ErrTermsNotAccepted}
	}
	if session.Permissions != nil {
		missing, err := permission.EnsureGranted(session.Permissions, session.PlatformLevel)
		if err != nil {
			return nil, &navigator.InitError{Code: navigator.LOCATION_PERMISSION_MISSING, Err: err}
		}
		if len(missing) > 0 {
			log.Warn("optional permissions not granted", zap.Any("missing", missing))
		}
	}
	return New(provider, resolver, log, opts...), nil
}
