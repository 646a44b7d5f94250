// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package editor

import (
	"strconv"

	"github.com/google/uuid"
)

// Identity is either a server-assigned id or a client-generated local token.
// The zero Identity is neither and never matches an entity.
type Identity struct {
	server int64
	local  string
}

// Persisted returns the identity of an entity the backend acknowledged
func Persisted(id int64) Identity {
	return Identity{server: id}
}

// Local returns a local-only identity with the given token
func Local(token string) Identity {
	return Identity{local: token}
}

// NewLocal returns a fresh random local-only identity
func NewLocal() Identity {
	return Local(uuid.NewString())
}

func (id Identity) IsPersisted() bool { return id.local == "" && id.server != 0 }

func (id Identity) IsLocal() bool { return id.local != "" }

func (id Identity) IsZero() bool { return id.local == "" && id.server == 0 }

// ServerID returns the backend id and whether the identity is persisted
func (id Identity) ServerID() (int64, bool) {
	if !id.IsPersisted() {
		return 0, false
	}
	return id.server, true
}

// String renders persisted ids as the number and local ids as "local:<token>"
func (id Identity) String() string {
	switch {
	case id.IsLocal():
		return "local:" + id.local
	case id.IsPersisted():
		return strconv.FormatInt(id.server, 10)
	default:
		return "<none>"
	}
}

// Kind tells an IDGenerator what it is naming
type Kind int

const (
	KindBallot Kind = iota
	KindPosition
	KindCandidate
)

// IDGenerator produces local-only identities
type IDGenerator func(Kind) Identity

// RandomIDs generates UUID-backed local identities
func RandomIDs(Kind) Identity {
	return NewLocal()
}

// SequentialIDs returns a generator producing b1, p1, p2, c1, ... per kind.
// Deterministic output is useful for scripts and tests.
func SequentialIDs() IDGenerator {
	counters := map[Kind]int{}
	prefixes := map[Kind]string{KindBallot: "b", KindPosition: "p", KindCandidate: "c"}
	return func(k Kind) Identity {
		counters[k]++
		return Local(prefixes[k] + strconv.Itoa(counters[k]))
	}
}
