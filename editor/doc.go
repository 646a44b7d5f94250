// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package editor holds the in-memory ballot tree and the rules applied to it.

# Identities

Every ballot, position and candidate carries an Identity. Persisted
identities come from the server; local identities are generated on the
client for entities that have never been saved:

	id := editor.Persisted(17)
	tmp := editor.NewLocal()

ToPayload omits local identities, so the server creates those entities.

# Store

Store applies edits without network I/O. Each mutation copies the edited
path and leaves untouched positions and candidates shared with the
previous tree. A store never holds a tree without positions; a new or
emptied tree gets one placeholder position:

	s := editor.NewEmptyStore(42, editor.AdminCreate)
	p := s.Ballot().Positions[0]
	err := s.UpdatePositionField(p.ID, editor.FieldName, "President")

RemovePosition and RemoveCandidate return *ConstraintViolation when a
minimum-count rule would break.

# Validation

Validate collects every failure into FieldErrors keyed by field path,
for example "positions.local:p1.candidates.local:c2.name".

# Images

CheckImage rejects empty, oversized and non-image files before upload.
*/
package editor
