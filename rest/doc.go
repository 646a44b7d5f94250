// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rest is the HTTP client for the ballot API.

# Errors

Calls fail with one of:

  - ErrNoToken, ErrMissingParam: nothing was sent
  - *TransportError: no response arrived; retry is safe
  - *StatusError: the server answered with a failure status
  - *MalformedResponseError: a success status with an unreadable body

Messages in StatusError come from the JSON message or error field, a
regex scrape of non-JSON bodies, or the status line, in that order.

# Ambiguous Creates

CreateBallot and CreateCandidate may see a 400 response that still
carries the created resource. Under AcceptCreated the resource is
returned with a *QualifiedSuccess warning; under Strict the call fails.
No other call gets this treatment.
*/
package rest
