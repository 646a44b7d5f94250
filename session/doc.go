// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session keeps an edited ballot in step with the ballot API.

# Sync Modes

Under editor.SyncEager each field change on a persisted entity is sent
right away; changes to local entities wait for the next save. A failed
sync comes back in SyncResult.Err and the local edit stays in place.

Under editor.SyncDeferred nothing is sent until Save.

# Saving

Save validates, then writes the whole tree with one create or update
call depending only on the ballot's own identity. The saved tree replaces
the local one, so local identities are gone afterwards.

SaveCandidates is the older path that saves candidates one request at a
time. One failure marks that candidate's SaveError and the rest continue.

# Images

AttachImage validates a file, shows a preview and uploads it. A failed
upload leaves the preview and the pending file in place for the next save.
*/
package session
