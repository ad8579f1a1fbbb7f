package web

import (
	"math"

	"github.com/daniyalk26/spotify-dashboard/internal/snapshot"
)

// Narrative thresholds for the mainstream-score section. Spotify popularity
// averages run 0-100.
const (
	veryMainstreamThreshold = 70
	balancedThreshold       = 40

	topListSize = 10
)

// Narrative copy per branch.
const (
	narrativeVeryMainstream = "You're very mainstream: your taste tracks the charts."
	narrativeBalanced       = "A balanced mix of hits and deeper cuts."
	narrativeUnderground    = "Proper underground: most of your plays fly below the radar."

	narrativeNightOwl    = "Night owl: most of your listening happens after dark."
	narrativeDayListener = "Daytime listener: your soundtrack runs while the sun is up."
)

// GenreSlice is one slice of the genre distribution chart.
type GenreSlice struct {
	Label   string
	Percent float64
}

// GenreSection is the genre distribution view model.
type GenreSection struct {
	Available bool
	Slices    []GenreSlice
}

// MainstreamSection is the mainstream-score view model.
type MainstreamSection struct {
	Available bool
	Score     float64 // rounded to one decimal
	Narrative string
}

// DayNightSection is the day/night split view model.
type DayNightSection struct {
	Available     bool
	DayPercent    float64
	NightPercent  float64
	NightDominant bool
	Narrative     string
}

// ArtistsSection is the top-artists view model.
type ArtistsSection struct {
	Available bool
	Artists   []snapshot.RankedArtist
}

// TracksSection is the top-tracks view model.
type TracksSection struct {
	Available bool
	Tracks    []snapshot.RankedTrack
}

// ListeningDay is one bar of the daily listening chart.
type ListeningDay struct {
	Label   string
	Minutes float64
}

// ListeningSection is the daily-listening view model.
type ListeningSection struct {
	Available  bool
	Days       []ListeningDay
	MaxMinutes float64
}

// Dashboard is the full dashboard view model. Each section degrades
// independently: a missing or malformed sub-object disables only its own
// section and the rest still render.
type Dashboard struct {
	RawKey string

	Genres     GenreSection
	Mainstream MainstreamSection
	DayNight   DayNightSection
	TopArtists ArtistsSection
	TopTracks  TracksSection
	Listening  ListeningSection
}

// BuildDashboard builds the dashboard view model from a processed snapshot.
// A nil snapshot (processed data unavailable) yields all six sections in
// their "no data" state.
func BuildDashboard(rawKey string, processed *snapshot.ProcessedSnapshot) Dashboard {
	d := Dashboard{RawKey: rawKey}
	if processed == nil {
		return d
	}

	d.Genres = buildGenres(processed.Genres)
	d.Mainstream = buildMainstream(processed.MainstreamScore)
	d.DayNight = buildDayNight(processed.DayVsNight)
	d.TopArtists = buildTopArtists(processed.TopArtists)
	d.TopTracks = buildTopTracks(processed.TopTracks)
	d.Listening = buildListening(processed.ListeningTime)
	return d
}

// buildGenres normalises the label/size pairs into percentages summing to
// 100. Mismatched or empty input disables the section.
func buildGenres(g snapshot.Genres) GenreSection {
	if len(g.Labels) == 0 || len(g.Labels) != len(g.Sizes) {
		return GenreSection{}
	}

	var total float64
	for _, size := range g.Sizes {
		if size < 0 {
			return GenreSection{}
		}
		total += size
	}
	if total <= 0 {
		return GenreSection{}
	}

	slices := make([]GenreSlice, len(g.Labels))
	for i, label := range g.Labels {
		slices[i] = GenreSlice{
			Label:   label,
			Percent: roundOne(g.Sizes[i] / total * 100),
		}
	}
	return GenreSection{Available: true, Slices: slices}
}

func buildMainstream(score float64) MainstreamSection {
	if score <= 0 || score > 100 {
		return MainstreamSection{}
	}

	narrative := narrativeUnderground
	switch {
	case score >= veryMainstreamThreshold:
		narrative = narrativeVeryMainstream
	case score >= balancedThreshold:
		narrative = narrativeBalanced
	}

	return MainstreamSection{
		Available: true,
		Score:     roundOne(score),
		Narrative: narrative,
	}
}

func buildDayNight(dn snapshot.DayVsNight) DayNightSection {
	if dn.DayPercent < 0 || dn.NightPercent < 0 || dn.DayPercent+dn.NightPercent <= 0 {
		return DayNightSection{}
	}

	// Night wins only on a strictly greater share; a tie reads as daytime.
	night := dn.NightPercent > dn.DayPercent
	narrative := narrativeDayListener
	if night {
		narrative = narrativeNightOwl
	}

	return DayNightSection{
		Available:     true,
		DayPercent:    roundOne(dn.DayPercent),
		NightPercent:  roundOne(dn.NightPercent),
		NightDominant: night,
		Narrative:     narrative,
	}
}

func buildTopArtists(artists []snapshot.RankedArtist) ArtistsSection {
	if len(artists) == 0 {
		return ArtistsSection{}
	}
	if len(artists) > topListSize {
		artists = artists[:topListSize]
	}
	ranked := make([]snapshot.RankedArtist, len(artists))
	copy(ranked, artists)
	for i := range ranked {
		if ranked[i].Rank == 0 {
			ranked[i].Rank = i + 1
		}
	}
	return ArtistsSection{Available: true, Artists: ranked}
}

func buildTopTracks(tracks []snapshot.RankedTrack) TracksSection {
	if len(tracks) == 0 {
		return TracksSection{}
	}
	if len(tracks) > topListSize {
		tracks = tracks[:topListSize]
	}
	ranked := make([]snapshot.RankedTrack, len(tracks))
	copy(ranked, tracks)
	for i := range ranked {
		if ranked[i].Rank == 0 {
			ranked[i].Rank = i + 1
		}
	}
	return TracksSection{Available: true, Tracks: ranked}
}

func buildListening(lt snapshot.ListeningTime) ListeningSection {
	if len(lt.DailyListeningLabels) == 0 || len(lt.DailyListeningLabels) != len(lt.DailyListeningValues) {
		return ListeningSection{}
	}

	days := make([]ListeningDay, len(lt.DailyListeningLabels))
	var max float64
	for i, label := range lt.DailyListeningLabels {
		minutes := lt.DailyListeningValues[i]
		if minutes < 0 {
			minutes = 0
		}
		if minutes > max {
			max = minutes
		}
		days[i] = ListeningDay{Label: label, Minutes: roundOne(minutes)}
	}
	return ListeningSection{Available: true, Days: days, MaxMinutes: max}
}

// roundOne rounds to one decimal place for display.
func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}
