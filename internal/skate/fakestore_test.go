package skate

import (
	"context"
	"fmt"
	"sync"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// fakeStore is a minimal in-memory stand-in for the Store interface, narrow
// enough to construct by hand instead of faking all of runtime.NakamaModule.
// Versions are monotonically increasing integers rendered as strings, the
// same OCC contract Nakama's real storage engine provides.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	uuidSeq int

	// conflictOnce, when set, forces exactly one StorageWrite to the named
	// collection/key to fail with a version conflict before succeeding,
	// simulating a concurrent writer winning the race.
	conflictOnce map[string]bool

	// notified records the recipient of every NotificationSend call.
	notified []string
}

type fakeObject struct {
	value   string
	version int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]fakeObject), conflictOnce: make(map[string]bool)}
}

func fakeKey(collection, key string) string { return collection + "/" + key }

func (f *fakeStore) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*runtime.StorageObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*runtime.StorageObject
	for _, r := range reads {
		obj, ok := f.objects[fakeKey(r.Collection, r.Key)]
		if !ok {
			continue
		}
		out = append(out, &api.StorageObject{
			Collection: r.Collection,
			Key:        r.Key,
			UserId:     r.UserID,
			Value:      obj.value,
			Version:    fmt.Sprintf("v%d", obj.version),
		})
	}
	return out, nil
}

func (f *fakeStore) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var acks []*api.StorageObjectAck
	for _, w := range writes {
		k := fakeKey(w.Collection, w.Key)
		existing, ok := f.objects[k]

		if f.conflictOnce[k] {
			delete(f.conflictOnce, k)
			return nil, fmt.Errorf("version check failed")
		}

		if w.Version == "*" {
			if ok {
				return nil, fmt.Errorf("version check failed: object already exists")
			}
		} else if w.Version != "" {
			if !ok || fmt.Sprintf("v%d", existing.version) != w.Version {
				return nil, fmt.Errorf("version check failed: stale version")
			}
		}

		nextVersion := 1
		if ok {
			nextVersion = existing.version + 1
		}
		f.objects[k] = fakeObject{value: w.Value, version: nextVersion}
		acks = append(acks, &api.StorageObjectAck{
			Collection: w.Collection,
			Key:        w.Key,
			UserId:     w.UserID,
			Version:    fmt.Sprintf("v%d", nextVersion),
		})
	}
	return acks, nil
}

func (f *fakeStore) StorageDelete(ctx context.Context, deletes []*runtime.StorageDelete) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range deletes {
		delete(f.objects, fakeKey(d.Collection, d.Key))
	}
	return nil
}

func (f *fakeStore) MultiUpdate(ctx context.Context, accountUpdates []*runtime.AccountUpdate, storageWrites []*runtime.StorageWrite, storageDeletes []*runtime.StorageDelete, walletUpdates []*runtime.WalletUpdate, updateLedger bool) ([]*api.StorageObjectAck, error) {
	if err := f.StorageDelete(ctx, storageDeletes); err != nil {
		return nil, err
	}
	return f.StorageWrite(ctx, storageWrites)
}

func (f *fakeStore) NotificationSend(ctx context.Context, userID, subject string, content map[string]interface{}, code int, sender string, persistent bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, userID)
	return nil
}

func (f *fakeStore) UuidGenerate() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uuidSeq++
	return fmt.Sprintf("uuid-%d", f.uuidSeq)
}

// forceConflict makes the next write to collection/key fail once, as if a
// concurrent writer had already moved the version forward.
func (f *fakeStore) forceConflict(collection, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conflictOnce[fakeKey(collection, key)] = true
}
