package services

import "context"

// ImageCheck validates a photo URL before it is attached to an item. It
// returns ErrImageRejected (possibly wrapped) for photos that fail.
type ImageCheck func(ctx context.Context, url string) error

// AcceptAllImages is the default check: every photo passes.
// TODO: detect faces and blank images once a vision provider is chosen.
func AcceptAllImages(ctx context.Context, url string) error {
	return nil
}
