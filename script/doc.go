// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package script replays YAML edit scripts against a ballot session.

A script looks like:

	election: 4
	steps:
	  - op: set-description
	    value: Spring general election
	  - op: add-position
	    as: treasurer
	    fields: {name: Treasurer, max_choices: 1}
	    candidates:
	      - {first_name: Ada, last_name: Lovelace}
	      - {first_name: Alan, last_name: Turing}
	  - op: attach-image
	    candidate: "#1"
	    position: treasurer
	    file: photos/ada.png

References are "#N" for the N-th entry, a plain number for a server id
or a label set with "as". Saving is left to the caller.
*/
package script
