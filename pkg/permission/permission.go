package permission

import (
	"errors"
	"fmt"
	"strings"
)

type Permission string

const (
	ACCESS_FINE_LOCATION Permission = "android.permission.ACCESS_FINE_LOCATION"
	POST_NOTIFICATIONS   Permission = "android.permission.POST_NOTIFICATIONS"
)

// NotificationPermissionLevel is the first platform level that requires POST_NOTIFICATIONS.
const NotificationPermissionLevel = 33

var ErrPermissionDenied = errors.New("permission denied")

// Checker answers whether a runtime permission has been granted.
type Checker interface {
	Granted(p Permission) bool
}

// StaticChecker is a Checker backed by a fixed set of granted permissions.
type StaticChecker map[Permission]bool

func NewStaticChecker(granted ...string) StaticChecker {
	c := make(StaticChecker, len(granted))
	for _, g := range granted {
		c[Normalize(g)] = true
	}
	return c
}

func (c StaticChecker) Granted(p Permission) bool {
	return c[p]
}

// Normalize accepts both the short form (ACCESS_FINE_LOCATION) and the qualified name.
func Normalize(name string) Permission {
	name = strings.TrimSpace(name)
	if strings.Contains(name, ".") {
		return Permission(name)
	}
	return Permission("android.permission." + strings.ToUpper(name))
}

// Required lists the permissions needed before navigation can start on platform level sdk.
func Required(sdk int) []Permission {
	if sdk >= NotificationPermissionLevel {
		return []Permission{ACCESS_FINE_LOCATION, POST_NOTIFICATIONS}
	}
	return []Permission{ACCESS_FINE_LOCATION}
}

// Missing returns the required permissions that are not granted.
func Missing(c Checker, sdk int) []Permission {
	var missing []Permission
	for _, p := range Required(sdk) {
		if !c.Granted(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// EnsureGranted fails only when fine location is missing: navigation cannot run without it,
// while a missing notification permission just hides the guidance notification.
func EnsureGranted(c Checker, sdk int) ([]Permission, error) {
	missing := Missing(c, sdk)
	for _, p := range missing {
		if p == ACCESS_FINE_LOCATION {
			return missing, fmt.Errorf("%w: %s", ErrPermissionDenied, joinPermissions(missing))
		}
	}
	return missing, nil
}

func joinPermissions(ps []Permission) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
