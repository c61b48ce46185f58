package skate

import (
	"strings"

	skateerr "github.com/myhuemungusD/skatehubba/internal/errors"
)

// TurnInput is the validated entry-level payload for submitTurn (§4.5).
type TurnInput struct {
	TrickDescription string
	VideoURL         string
	VideoDurationMs  int
	ThumbnailURL     string
}

// Validate enforces the video/description constraints stated in §4.5:
// duration greater than 0 and at most MaxVideoDurationMs, trusted storage
// domain, 1..500 char description.
func (t TurnInput) Validate(cfg Config) error {
	desc := strings.TrimSpace(t.TrickDescription)
	if len(desc) < 1 || len(desc) > 500 {
		return skateerr.ErrTrickDescription
	}
	if t.VideoDurationMs <= 0 || t.VideoDurationMs > cfg.MaxVideoDurationMs {
		return skateerr.ErrVideoTooLong
	}
	if !strings.Contains(t.VideoURL, cfg.TrustedVideoDomain) {
		return skateerr.ErrVideoDomain
	}
	return nil
}
