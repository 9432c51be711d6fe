package services

import "context"

// VideoVerifier checks that a submitted video URL points at a real object.
// A missing object is reported as utils.ErrObjectMissing.
type VideoVerifier interface {
	VerifyVideo(ctx context.Context, url string) error
}
