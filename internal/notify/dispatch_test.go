package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatchStore struct {
	prefs      *Preferences
	readErr    error
	sentTo     []string
	sentTitles []string
}

func (f *fakeDispatchStore) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*runtime.StorageObject, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.prefs == nil {
		return nil, nil
	}
	b, err := json.Marshal(f.prefs)
	if err != nil {
		return nil, err
	}
	return []*runtime.StorageObject{&api.StorageObject{Value: string(b)}}, nil
}

func (f *fakeDispatchStore) NotificationSend(ctx context.Context, userID, subject string, content map[string]interface{}, code int, sender string, persistent bool) error {
	f.sentTo = append(f.sentTo, userID)
	f.sentTitles = append(f.sentTitles, subject)
	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(format string, v ...interface{}) {}
func (noopLogger) Info(format string, v ...interface{})  {}
func (noopLogger) Warn(format string, v ...interface{})  {}
func (noopLogger) Error(format string, v ...interface{}) {}
func (noopLogger) WithField(key string, v interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} { return nil }

func TestDispatch_NoPreferencesRowUsesPermissiveDefaults(t *testing.T) {
	store := &fakeDispatchStore{}
	Dispatch(context.Background(), store, noopLogger{}, TypeYourTurn, "game1", "alice", "Your turn", nil)
	require.Len(t, store.sentTo, 1)
	assert.Equal(t, "alice", store.sentTo[0])
}

func TestDispatch_CategoryDisabledSkipsInApp(t *testing.T) {
	store := &fakeDispatchStore{prefs: &Preferences{
		InAppEnabled: true,
		Categories:   map[Type]bool{TypeYourTurn: false},
	}}
	Dispatch(context.Background(), store, noopLogger{}, TypeYourTurn, "game1", "alice", "Your turn", nil)
	assert.Empty(t, store.sentTo, "a disabled category must suppress every channel including in-app")
}

func TestDispatch_InAppEnabledDuringQuietHoursStillFires(t *testing.T) {
	store := &fakeDispatchStore{prefs: &Preferences{
		InAppEnabled:       true,
		PushEnabled:        true,
		EmailEnabled:       true,
		QuietHoursStartMin: 0,
		QuietHoursEndMin:   24 * 60, // always quiet
	}}
	Dispatch(context.Background(), store, noopLogger{}, TypeYourTurn, "game1", "alice", "Your turn", nil)
	require.Len(t, store.sentTo, 1, "in-app delivery is never gated by quiet hours")
}

func TestDispatch_InAppDisabledNeverCallsNotificationSend(t *testing.T) {
	store := &fakeDispatchStore{prefs: &Preferences{InAppEnabled: false}}
	Dispatch(context.Background(), store, noopLogger{}, TypeYourTurn, "game1", "alice", "Your turn", nil)
	assert.Empty(t, store.sentTo)
}
