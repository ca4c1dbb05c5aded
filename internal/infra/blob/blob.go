// Package blob stores binary payloads under a path and hands back a
// retrievable URL. Proof-of-payment images go through here.
package blob

import "context"

// Uploader is the narrow surface reservations need: upload bytes, get a
// URL. Failures must be reported, never swallowed, so a reservation is
// never committed referencing an image that was not stored.
type Uploader interface {
	Upload(ctx context.Context, data []byte, path string) (string, error)
}
