// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package live follows an election's results for a fullscreen display.
// A Poller fetches results on an interval and a Carousel rotates through
// the positions:
//
//	snaps := live.NewPoller(client, electionID).Run(ctx)
//	live.NewCarousel().Run(ctx, snaps, live.DefaultRotate, render)
package live
