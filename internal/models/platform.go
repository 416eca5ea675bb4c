package models

import "fmt"

// Platform identifies an external music platform a track or playlist is
// hosted on.
type Platform string

const (
	PlatformSoundcloud Platform = "SOUNDCLOUD"
	PlatformYoutube    Platform = "YOUTUBE"
)

// Valid reports whether the value is a known platform.
func (p Platform) Valid() bool {
	return p == PlatformSoundcloud || p == PlatformYoutube
}

// TrackID builds the canonical composite track reference id. The id is
// globally unique and deterministic from the (platform, platform id) pair.
func TrackID(platform Platform, platformID string) string {
	return fmt.Sprintf("%s/%s", platform, platformID)
}
