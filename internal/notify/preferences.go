package notify

import (
	"context"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	prefsCollection = "notification_prefs"
	prefsKey        = "prefs"
)

// Preferences holds one user's notification routing choices. Absent storage
// rows resolve to permissive defaults, per §4.11 step 1.
type Preferences struct {
	PushEnabled  bool            `json:"pushEnabled"`
	EmailEnabled bool            `json:"emailEnabled"`
	InAppEnabled bool            `json:"inAppEnabled"`
	PushToken    string          `json:"pushToken,omitempty"`
	Categories   map[Type]bool   `json:"categories,omitempty"`
	// QuietHoursStartMin/EndMin are minutes-since-midnight in the user's
	// locale; QuietHoursStartMin == QuietHoursEndMin means quiet hours are
	// disabled.
	QuietHoursStartMin int `json:"quietHoursStartMin"`
	QuietHoursEndMin   int `json:"quietHoursEndMin"`
}

func defaultPreferences() Preferences {
	return Preferences{
		PushEnabled:  true,
		EmailEnabled: true,
		InAppEnabled: true,
	}
}

// categoryEnabled reports whether the given type's category toggle is on.
// An unset entry defaults to enabled.
func (p Preferences) categoryEnabled(t Type) bool {
	if p.Categories == nil {
		return true
	}
	enabled, ok := p.Categories[t]
	if !ok {
		return true
	}
	return enabled
}

// quietHoursActive reports whether minuteOfDay falls inside the quiet-hours
// window, including windows that wrap past midnight.
func (p Preferences) quietHoursActive(minuteOfDay int) bool {
	if p.QuietHoursStartMin == p.QuietHoursEndMin {
		return false
	}
	if p.QuietHoursStartMin < p.QuietHoursEndMin {
		return minuteOfDay >= p.QuietHoursStartMin && minuteOfDay < p.QuietHoursEndMin
	}
	// wraps past midnight, e.g. 22:00-06:00
	return minuteOfDay >= p.QuietHoursStartMin || minuteOfDay < p.QuietHoursEndMin
}

// loadPreferences reads a user's notification preferences from storage.
// Any read failure (including "not found") falls back to permissive
// defaults so a missing or unreachable preferences row never silences a
// notification outright.
func loadPreferences(ctx context.Context, nk Store, logger runtime.Logger, userID string) Preferences {
	objects, err := nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: prefsCollection, Key: prefsKey, UserID: userID},
	})
	if err != nil || len(objects) == 0 {
		if err != nil {
			logger.WithField("user_id", userID).Warn("notify: preferences unreachable, using defaults: %v", err)
		}
		return defaultPreferences()
	}

	var prefs Preferences
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &prefs); err != nil {
		logger.WithField("user_id", userID).Warn("notify: preferences corrupt, using defaults: %v", err)
		return defaultPreferences()
	}
	return prefs
}

func isValidPushToken(token string) bool {
	// Expected provider format: "<provider>:<opaque-token>", e.g. "fcm:abc123".
	if len(token) < 5 {
		return false
	}
	for i := 0; i < len(token); i++ {
		if token[i] == ':' {
			return i > 0 && i < len(token)-1
		}
	}
	return false
}
