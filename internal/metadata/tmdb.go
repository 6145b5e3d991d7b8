package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"metaproxy/internal/models"
)

type tmdbResult struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"` // movies
	Name       string `json:"name"`  // tv
	PosterPath string `json:"poster_path"`
}

type tmdbSearchResponse struct {
	Results []tmdbResult `json:"results"`
}

// TMDBOptions locates the TMDB API and the public site.
type TMDBOptions struct {
	APIKey       string
	APIBaseURL   string
	ImageBaseURL string
	SiteURL      string
}

// TMDB searches movies or TV shows. A result without a poster is not a match.
type TMDB struct {
	api       *apiClient
	apiKey    string
	imageBase string
	siteBase  string
	media     string // "movie" or "tv"
}

// NewTMDBClients returns the movie and tv catalogs. They share one HTTP client
// and throttle since both spend the same API key.
func NewTMDBClients(cfg TMDBOptions, opts ClientOptions) (movie *TMDB, tv *TMDB) {
	api := newAPIClient("tmdb", cfg.APIBaseURL, opts)
	build := func(media string) *TMDB {
		return &TMDB{
			api:       api,
			apiKey:    cfg.APIKey,
			imageBase: strings.TrimRight(cfg.ImageBaseURL, "/"),
			siteBase:  strings.TrimRight(cfg.SiteURL, "/"),
			media:     media,
		}
	}
	return build("movie"), build("tv")
}

func (t *TMDB) Name() string { return "tmdb_" + t.media }

func (t *TMDB) Lookup(ctx context.Context, query string) (*models.MetadataResponse, error) {
	params := url.Values{}
	params.Set("api_key", t.apiKey)
	params.Set("query", query)
	params.Set("include_adult", "false")

	var result tmdbSearchResponse
	if err := t.api.getJSON(ctx, "/search/"+t.media, params, nil, &result); err != nil {
		return nil, err
	}

	if len(result.Results) == 0 || result.Results[0].PosterPath == "" {
		return models.NotFound(), nil
	}
	hit := result.Results[0]

	title := hit.Title
	if t.media == "tv" {
		title = hit.Name
	}
	return &models.MetadataResponse{
		Found: true,
		Title: title,
		Image: t.imageBase + hit.PosterPath,
		URL:   fmt.Sprintf("%s/%s/%d", t.siteBase, t.media, hit.ID),
	}, nil
}
