// Package snapshot implements the extraction and retrieval of listening-data
// snapshots: the raw document assembled from the Spotify Web API and the
// processed analytics document produced out-of-band from it.
package snapshot

import (
	"github.com/zmb3/spotify/v2"
)

// RawSnapshot is the combined extraction result for one user. The provider
// payloads are stored as returned by the Web API, paging envelopes included,
// so the downstream transformer sees the same shapes the API produces.
type RawSnapshot struct {
	UserID         string                       `json:"user_id"`
	DisplayName    string                       `json:"display_name"`
	TopArtistsLong *spotify.FullArtistPage      `json:"top_artists_long"`
	TopTracksLong  *spotify.FullTrackPage       `json:"top_tracks_long"`
	RecentlyPlayed []spotify.RecentlyPlayedItem `json:"recently_played"`
}

// ProcessedSnapshot is the analytics document the external transformer writes
// for each raw snapshot. All fields are optional at render time; the UI
// degrades section by section.
type ProcessedSnapshot struct {
	Genres          Genres         `json:"genres"`
	MainstreamScore float64        `json:"mainstream_score"`
	DayVsNight      DayVsNight     `json:"day_vs_night"`
	TopArtists      []RankedArtist `json:"top_artists"`
	TopTracks       []RankedTrack  `json:"top_tracks"`
	ListeningTime   ListeningTime  `json:"listening_time"`
}

// Genres is a label/size pair list describing the genre distribution.
type Genres struct {
	Labels []string  `json:"labels"`
	Sizes  []float64 `json:"sizes"`
}

// DayVsNight splits listening events into day and night shares.
type DayVsNight struct {
	DayPercent   float64 `json:"day_percent"`
	NightPercent float64 `json:"night_percent"`
}

// RankedArtist is one entry of the processed top-artists list.
type RankedArtist struct {
	Rank        int    `json:"rank"`
	ArtistName  string `json:"artist_name"`
	ArtistImage string `json:"artist_image"`
}

// RankedTrack is one entry of the processed top-tracks list.
type RankedTrack struct {
	Rank       int    `json:"rank"`
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
	AlbumImage string `json:"album_image"`
}

// ListeningTime holds per-day listening minutes.
type ListeningTime struct {
	DailyListeningLabels []string  `json:"daily_listening_labels"`
	DailyListeningValues []float64 `json:"daily_listening_values"`
}
