package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

type idKind uint8

const (
	idLocal idKind = iota
	idRemote
)

// ItemID identifies a grocery item as either a client-generated local token
// (an optimistic placeholder, or an item that only exists on this device) or
// a server-assigned UUID. The two kinds never compare equal, so placeholder
// reconciliation is a kind check instead of a string-shape heuristic.
type ItemID struct {
	kind  idKind
	value string
}

const localPrefix = "local-"

// NewLocalID returns a fresh placeholder id.
func NewLocalID() ItemID {
	return ItemID{kind: idLocal, value: localPrefix + uuid.NewString()}
}

// RemoteID wraps a server-assigned UUID.
func RemoteID(id uuid.UUID) ItemID {
	return ItemID{kind: idRemote, value: id.String()}
}

// ParseItemID classifies a raw id string. Only the canonical 36-character
// UUID form counts as remote; anything else (including malformed or truncated
// server ids) degrades to a local id so it never reaches a remote call.
func ParseItemID(s string) ItemID {
	if len(s) == 36 {
		if u, err := uuid.Parse(s); err == nil {
			return RemoteID(u)
		}
	}
	return ItemID{kind: idLocal, value: s}
}

// IsRemote reports whether the id was assigned by the server.
func (id ItemID) IsRemote() bool { return id.kind == idRemote }

// Remote returns the server UUID, if any.
func (id ItemID) Remote() (uuid.UUID, bool) {
	if id.kind != idRemote {
		return uuid.Nil, false
	}
	u, err := uuid.Parse(id.value)
	if err != nil {
		return uuid.Nil, false
	}
	return u, true
}

func (id ItemID) IsZero() bool { return id.value == "" }

func (id ItemID) String() string { return id.value }

func (id ItemID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

func (id *ItemID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*id = ParseItemID(s)
	return nil
}
