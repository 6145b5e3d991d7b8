package metadata

import (
	"context"
	"net/url"
	"strings"

	"metaproxy/internal/models"
)

type booksResponse struct {
	Items []struct {
		VolumeInfo struct {
			Title      string `json:"title"`
			InfoLink   string `json:"infoLink"`
			ImageLinks struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// GoogleBooks searches volumes. The API accepts anonymous requests, so the
// key is optional.
type GoogleBooks struct {
	api    *apiClient
	apiKey string
}

func NewGoogleBooks(baseURL, apiKey string, opts ClientOptions) *GoogleBooks {
	return &GoogleBooks{
		api:    newAPIClient("google_books", baseURL, opts),
		apiKey: apiKey,
	}
}

func (b *GoogleBooks) Name() string { return "google_books" }

// Lookup returns the first volume that has a cover thumbnail. Thumbnails are
// rewritten to https so the client never loads mixed content.
func (b *GoogleBooks) Lookup(ctx context.Context, query string) (*models.MetadataResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", "1")
	if b.apiKey != "" {
		params.Set("key", b.apiKey)
	}

	var result booksResponse
	if err := b.api.getJSON(ctx, "/volumes", params, nil, &result); err != nil {
		return nil, err
	}

	if len(result.Items) == 0 {
		return models.NotFound(), nil
	}
	info := result.Items[0].VolumeInfo
	if info.ImageLinks.Thumbnail == "" {
		return models.NotFound(), nil
	}

	return &models.MetadataResponse{
		Found: true,
		Title: info.Title,
		Image: strings.Replace(info.ImageLinks.Thumbnail, "http://", "https://", 1),
		URL:   info.InfoLink,
	}, nil
}
