// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package imagestore persists candidate photos for the reference server.

Uploads are first passed through Normalize, which applies the EXIF
orientation and shrinks the photo to at most MaxDimension pixels per side.
The result goes to a Store:

  - Disk writes into a local directory; the router serves it under /uploads.
  - S3 writes into a bucket, optionally on an S3-compatible endpoint.

	name := imagestore.ObjectName(n.Ext)
	url, err := store.Put(ctx, name, n.ContentType, n.Data)
*/
package imagestore
