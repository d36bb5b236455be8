package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const DefaultUnsplashURL = "https://api.unsplash.com"

// UnsplashClient looks up a landscape photo to decorate a place.
type UnsplashClient struct {
	*BaseClient
	accessKey string
	baseURL   string
}

type unsplashPhoto struct {
	Urls struct {
		Regular string `json:"regular"`
	} `json:"urls"`
}

func NewUnsplashClient(accessKey, baseURL string, config ClientConfig, logger *zap.Logger) *UnsplashClient {
	if baseURL == "" {
		baseURL = DefaultUnsplashURL
	}
	return &UnsplashClient{
		BaseClient: NewBaseClient("unsplash", config, logger),
		accessKey:  accessKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SearchImage returns the URL of a random photo matching query.
func (c *UnsplashClient) SearchImage(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("client_id", c.accessKey)
	q.Set("orientation", "landscape")

	data, err := c.Get(ctx, fmt.Sprintf("%s/photos/random?%s", c.baseURL, q.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}

	var photo unsplashPhoto
	if err := json.Unmarshal(data, &photo); err != nil {
		return "", fmt.Errorf("failed to parse image response: %w", err)
	}
	if photo.Urls.Regular == "" {
		return "", fmt.Errorf("no image for %q", query)
	}
	return photo.Urls.Regular, nil
}
