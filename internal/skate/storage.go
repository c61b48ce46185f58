package skate

import (
	"context"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"

	skateerr "github.com/myhuemungusD/skatehubba/internal/errors"
)

// This file is the low-level storage layer: read/write helpers over
// Nakama's optimistic-concurrency storage engine, generalized from the
// read-modify-write-with-version idiom the teacher used for item
// progression (one object per entity, Version carries the OCC check).

func readObject(ctx context.Context, nk Store, collection, key string, out interface{ SetVersion(string) }) (bool, error) {
	objects, err := nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: collection, Key: key, UserID: SystemUserID},
	})
	if err != nil {
		return false, skateerr.ErrCouldNotReadStorage
	}
	if len(objects) == 0 {
		return false, nil
	}
	if err := json.Unmarshal([]byte(objects[0].GetValue()), out); err != nil {
		return false, skateerr.ErrUnmarshal
	}
	out.SetVersion(objects[0].GetVersion())
	return true, nil
}

// writeObject performs a version-checked write: version == "" means "must
// not already exist" (create), any other value means "must match the
// currently stored version" (update). Nakama's storage engine enforces
// this atomically; a mismatch surfaces as an error from StorageWrite,
// which writeObject returns as ErrGatewayConflict without retrying.
func writeObject(ctx context.Context, nk Store, collection, key string, version string, value interface{}) (string, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", skateerr.ErrMarshal
	}
	write := &runtime.StorageWrite{
		Collection:      collection,
		Key:             key,
		UserID:          SystemUserID,
		Value:           string(b),
		Version:         version,
		PermissionRead:  0,
		PermissionWrite: 0,
	}
	if version == "" {
		write.Version = "*" // must not exist
	}
	acks, err := nk.StorageWrite(ctx, []*runtime.StorageWrite{write})
	if err != nil {
		return "", skateerr.ErrGatewayConflict
	}
	if len(acks) == 0 {
		return "", skateerr.ErrCouldNotWriteStorage
	}
	return acks[0].GetVersion(), nil
}

// buildWrite marshals value and returns the *runtime.StorageWrite for it
// without submitting it, so callers can collect several rows into one
// batch and commit them together via Store.MultiUpdate.
func buildWrite(collection, key, version string, value interface{}) (*runtime.StorageWrite, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, skateerr.ErrMarshal
	}
	write := &runtime.StorageWrite{
		Collection:      collection,
		Key:             key,
		UserID:          SystemUserID,
		Value:           string(b),
		Version:         version,
		PermissionRead:  0,
		PermissionWrite: 0,
	}
	if version == "" {
		write.Version = "*"
	}
	return write, nil
}

func readSession(ctx context.Context, nk Store, sessionID string) (*Session, bool, error) {
	s := &Session{}
	found, err := readObject(ctx, nk, CollectionGames, sessionID, s)
	return s, found, err
}

func writeSession(ctx context.Context, nk Store, s *Session) error {
	v, err := writeObject(ctx, nk, CollectionGames, s.ID, s.Version(), s)
	if err != nil {
		return err
	}
	s.SetVersion(v)
	return nil
}

func readTurn(ctx context.Context, nk Store, turnID string) (*Turn, bool, error) {
	t := &Turn{}
	found, err := readObject(ctx, nk, CollectionTurns, turnID, t)
	return t, found, err
}

func writeTurn(ctx context.Context, nk Store, t *Turn) error {
	v, err := writeObject(ctx, nk, CollectionTurns, t.ID, t.Version(), t)
	if err != nil {
		return err
	}
	t.SetVersion(v)
	return nil
}

func readDispute(ctx context.Context, nk Store, disputeID string) (*Dispute, bool, error) {
	d := &Dispute{}
	found, err := readObject(ctx, nk, CollectionDisputes, disputeID, d)
	return d, found, err
}

func writeDispute(ctx context.Context, nk Store, d *Dispute) error {
	v, err := writeObject(ctx, nk, CollectionDisputes, d.ID, d.Version(), d)
	if err != nil {
		return err
	}
	d.SetVersion(v)
	return nil
}

func readProfile(ctx context.Context, nk Store, playerID string) (*Profile, error) {
	p := &Profile{PlayerID: playerID}
	found, err := readObject(ctx, nk, CollectionProfiles, playerID, p)
	if err != nil {
		return nil, err
	}
	if !found {
		p.PlayerID = playerID
	}
	return p, nil
}

func writeProfile(ctx context.Context, nk Store, p *Profile) error {
	v, err := writeObject(ctx, nk, CollectionProfiles, p.PlayerID, p.Version(), p)
	if err != nil {
		return err
	}
	p.SetVersion(v)
	return nil
}

// newID derives an opaque session/turn/dispute ID from Nakama's own UUID
// generator so callers never need a database sequence.
func newID(nk Store) string {
	return nk.UuidGenerate()
}
