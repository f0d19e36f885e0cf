package ee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/canopysat/eeharvest/internal/properties"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/oauth2/google"
)

const (
	DefaultBaseURL = "https://earthengine.googleapis.com/v1"

	// Scope is the OAuth2 scope required by the Earth Engine REST API.
	Scope = "https://www.googleapis.com/auth/earthengine"

	// publicAssetsProject hosts the public catalog collections.
	publicAssetsProject = "earthengine-public"
)

// Client talks to the Earth Engine REST API. All raster computation happens
// server-side; the client only submits expression graphs and reads bytes back.
type Client struct {
	hc         *http.Client
	project    string
	baseURL    string
	retries    int
	retryDelay time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the authenticated client, bypassing the
// service-account flow. Used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.retryDelay = delay
	}
}

// NewClient authenticates against Earth Engine for the given cloud project.
// Credentials come from the service-account key file named by the
// EE_SERVICE_ACCOUNT_KEY environment variable.
func NewClient(ctx context.Context, project string, opts ...Option) (*Client, error) {
	if project == "" {
		return nil, fmt.Errorf("earth engine project id is required")
	}
	c := &Client{
		project:    project,
		baseURL:    DefaultBaseURL,
		retries:    10,
		retryDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc == nil {
		keyPath := properties.ServiceAccountKeyPath()
		if keyPath == "" {
			return nil, fmt.Errorf("missing required environment variable: EE_SERVICE_ACCOUNT_KEY")
		}
		key, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read service account key: %v", err)
		}
		cfg, err := google.JWTConfigFromJSON(key, Scope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse service account key: %v", err)
		}
		c.hc = cfg.Client(ctx)
	}
	return c, nil
}

// PixelsRequest is the body of an image:computePixels call.
type PixelsRequest struct {
	Expression Expression `json:"expression"`
	FileFormat string     `json:"fileFormat"`
	Grid       PixelGrid  `json:"grid"`
	BandIDs    []string   `json:"bandIds,omitempty"`
}

// ComputePixels evaluates the expression over the request grid and returns
// the encoded raster (GeoTIFF for FileFormat "GEO_TIFF").
func (c *Client) ComputePixels(ctx context.Context, req *PixelsRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal computePixels request: %v", err)
	}
	endpoint := fmt.Sprintf("%s/projects/%s/image:computePixels", c.baseURL, c.project)
	return c.post(ctx, endpoint, body)
}

// ImageAsset is one catalog entry returned by a collection listing.
type ImageAsset struct {
	Name      string    `json:"name"`
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
}

type listImagesResponse struct {
	Images        []ImageAsset `json:"images"`
	NextPageToken string       `json:"nextPageToken"`
}

// ListImages enumerates the images of a public collection intersecting region
// within [start, end). A non-empty filter is a metadata expression such as
// "properties.CLOUDY_PIXEL_PERCENTAGE <= 15". Pages are followed until
// exhausted.
func (c *Client) ListImages(ctx context.Context, collection string, region *geojson.Geometry, start, end time.Time, filter string) ([]ImageAsset, error) {
	regionJSON, err := json.Marshal(region)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal region: %v", err)
	}

	var assets []ImageAsset
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("startTime", start.UTC().Format(time.RFC3339))
		q.Set("endTime", end.UTC().Format(time.RFC3339))
		q.Set("region", string(regionJSON))
		if filter != "" {
			q.Set("filter", filter)
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		endpoint := fmt.Sprintf("%s/projects/%s/assets/%s:listImages?%s",
			c.baseURL, publicAssetsProject, collection, q.Encode())

		respBody, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", collection, err)
		}
		var page listImagesResponse
		if err := json.Unmarshal(respBody, &page); err != nil {
			return nil, fmt.Errorf("invalid listImages response: %v", err)
		}
		assets = append(assets, page.Images...)
		if page.NextPageToken == "" {
			return assets, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	return c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
}

// do runs the request with bounded retries. Authorization failures abort
// immediately; other failures are retried after a fixed delay.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("failed to read response body: %v", readErr)
			} else {
				switch {
				case resp.StatusCode == http.StatusOK:
					return respBody, nil
				case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
					return nil, fmt.Errorf("unauthorized, check the service account key and project id: %s", respBody)
				default:
					lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
				}
			}
		}

		if attempt < c.retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %v", c.retries, lastErr)
}
