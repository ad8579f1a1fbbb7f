// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"
)

// fetchLimit is the maximum page size the Web API allows, and the amount the
// dashboard fetches for every resource.
const fetchLimit = 50

// Client wraps the Spotify API client with the calls the dashboard needs.
type Client struct {
	api *spotify.Client
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// CurrentUser returns the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*spotify.PrivateUser, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}
	return user, nil
}

// TopArtists returns the user's all-time top artists (long_term, limit 50).
func (c *Client) TopArtists(ctx context.Context) (*spotify.FullArtistPage, error) {
	page, err := c.api.CurrentUsersTopArtists(ctx, spotify.Limit(fetchLimit), spotify.Timerange(spotify.LongTermRange))
	if err != nil {
		return nil, fmt.Errorf("getting top artists: %w", err)
	}
	return page, nil
}

// TopTracks returns the user's all-time top tracks (long_term, limit 50).
func (c *Client) TopTracks(ctx context.Context) (*spotify.FullTrackPage, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx, spotify.Limit(fetchLimit), spotify.Timerange(spotify.LongTermRange))
	if err != nil {
		return nil, fmt.Errorf("getting top tracks: %w", err)
	}
	return page, nil
}

// RecentlyPlayedAfter returns up to 50 play events at or after the given
// cutoff. The Web API takes the cutoff as a millisecond epoch.
func (c *Client) RecentlyPlayedAfter(ctx context.Context, after time.Time) ([]spotify.RecentlyPlayedItem, error) {
	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{
		Limit:        fetchLimit,
		AfterEpochMs: after.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("getting recently played: %w", err)
	}
	return items, nil
}
