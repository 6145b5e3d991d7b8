package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"metaproxy/internal/models"
)

// TokenSource supplies the bearer token for Spotify requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type spotifyTrack struct {
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string `json:"name"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

// Spotify searches tracks. Images are the album's first (largest) image.
type Spotify struct {
	api    *apiClient
	tokens TokenSource
}

func NewSpotify(baseURL string, tokens TokenSource, opts ClientOptions) *Spotify {
	return &Spotify{
		api:    newAPIClient("spotify", baseURL, opts),
		tokens: tokens,
	}
}

func (s *Spotify) Name() string { return "spotify" }

// Lookup returns the first track matching query. Token errors are returned
// unchanged so callers can tell credential problems from search failures.
// A 401 drops the cached token; the request is not retried.
func (s *Spotify) Lookup(ctx context.Context, query string) (*models.MetadataResponse, error) {
	tok, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify token: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", "1")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+tok)

	var result spotifySearchResponse
	if err := s.api.getJSON(ctx, "/search", params, header, &result); err != nil {
		var lookupErr *LookupError
		if errors.As(err, &lookupErr) && lookupErr.StatusCode == http.StatusUnauthorized {
			slog.Warn("Spotify rejected access token", "query", query)
			s.tokens.Invalidate()
		}
		return nil, err
	}

	if len(result.Tracks.Items) == 0 {
		return models.NotFound(), nil
	}
	track := result.Tracks.Items[0]

	resp := &models.MetadataResponse{
		Found: true,
		Title: track.Name,
		Album: track.Album.Name,
		URL:   track.ExternalURLs.Spotify,
	}
	if len(track.Artists) > 0 {
		resp.Artist = track.Artists[0].Name
	}
	if len(track.Album.Images) > 0 {
		resp.Image = track.Album.Images[0].URL
	}
	return resp, nil
}
