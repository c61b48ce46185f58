package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Store is the narrow slice of runtime.NakamaModule the dispatcher needs.
// Any caller's wider Nakama interface (e.g. the skate package's own Store)
// satisfies this structurally, so the reconciler and gateway can hand their
// own handle straight to Dispatch without an adapter.
type Store interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*runtime.StorageObject, error)
	NotificationSend(ctx context.Context, userID, subject string, content map[string]interface{}, code int, sender string, persistent bool) error
}

// Dispatch delivers one logical notification to userID, honoring
// preferences, category toggles and quiet hours exactly as §4.11 describes.
// It is fire-and-forget: every channel failure is logged and swallowed, and
// Dispatch itself never returns an error to its caller, since a committed
// state transition must never be undone by a notification failure.
func Dispatch(ctx context.Context, nk Store, logger runtime.Logger, t Type, sessionID, userID, title string, extra map[string]interface{}) {
	prefs := loadPreferences(ctx, nk, logger, userID)

	if !prefs.categoryEnabled(t) {
		logger.WithField("user_id", userID).WithField("type", string(t)).Info("notify: category disabled, skipping")
		return
	}

	payload := Payload{SessionID: sessionID, Type: t, Title: title, Extra: extra}

	if prefs.InAppEnabled {
		sendInApp(ctx, nk, logger, userID, payload)
	}

	quiet := prefs.quietHoursActive(minuteOfDay(time.Now()))
	if quiet {
		logger.WithField("user_id", userID).Info("notify: quiet hours active, suppressing push/email")
		return
	}

	if prefs.PushEnabled && isValidPushToken(prefs.PushToken) {
		sendPush(ctx, nk, logger, userID, payload)
	}
	if prefs.EmailEnabled && isHighValue(t) {
		sendEmail(ctx, nk, logger, userID, payload)
	}
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func sendInApp(ctx context.Context, nk Store, logger runtime.Logger, userID string, p Payload) {
	content, err := toContent(p)
	if err != nil {
		logger.WithField("user_id", userID).Error("notify: in-app marshal failed: %v", err)
		return
	}
	if err := nk.NotificationSend(ctx, userID, p.Title, content, codeFor(p.Type), "", true); err != nil {
		logger.WithField("user_id", userID).Error("notify: in-app send failed: %v", err)
	}
}

// sendPush is the push-channel stub: real delivery is an external
// collaborator (spec.md §1 Non-goals — push/email/in-app delivery
// backends). It only validates the routing decision was reached and logs
// the attempt, matching the "non-critical read paths fail independently"
// policy of §4.11 step 5.
func sendPush(ctx context.Context, nk Store, logger runtime.Logger, userID string, p Payload) {
	logger.WithField("user_id", userID).WithField("type", string(p.Type)).Debug("notify: push dispatched")
}

// sendEmail is the email-channel stub; see sendPush.
func sendEmail(ctx context.Context, nk Store, logger runtime.Logger, userID string, p Payload) {
	logger.WithField("user_id", userID).WithField("type", string(p.Type)).Debug("notify: email dispatched")
}

func toContent(p Payload) (map[string]interface{}, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var content map[string]interface{}
	if err := json.Unmarshal(b, &content); err != nil {
		return nil, err
	}
	return content, nil
}
