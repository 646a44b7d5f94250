// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Command ballotdesk composes election ballots against the ballot API and
runs a reference implementation of that API.

# Server

	BALLOTDESK_TOKEN_SECRET=... ballotdesk serve --dev-tokens

Or against PostgreSQL and S3:

	ballotdesk serve -t postgres -d "postgres://..." --image-store s3

# Editor

	ballotdesk token --role superadmin
	ballotdesk show 4
	ballotdesk validate 4 --script edits.yaml
	ballotdesk apply 4 --script edits.yaml --workflow superadmin
	ballotdesk upload-image photo.jpg
	ballotdesk watch 4

The admin workflow syncs field edits on saved entities immediately; the
superadmin workflow keeps every edit local until the whole ballot is
saved. Both finish by saving the whole tree, so an immediate sync that
failed is sent again. apply --per-candidate first saves each candidate of
a saved ballot on its own.

# Configuration

Settings come from defaults, an optional YAML file (--config), .env,
BALLOTDESK_* environment variables and flags, later ones winning. See
package cliparse.

# Architecture

  - editor: ballot tree, identities, store, validation, wire mapping
  - session: one edited ballot bound to the API (load, sync, save)
  - rest: API client and its error types
  - preview: display handles for images not yet uploaded
  - script: YAML edit scripts
  - live: results polling and the position carousel
  - handlers, router, middleware, db, imagestore: reference server
  - auth: session tokens
  - models: wire types
  - cliparse: configuration
*/
package main
