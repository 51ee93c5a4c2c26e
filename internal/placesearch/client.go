package placesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/citybeat-app/server/internal/config"
)

// UpstreamError wraps any failure talking to the third-party places API.
// There is no retry or caching; each call is a single pass-through request.
type UpstreamError struct {
	Status int
	Msg    string
}

func (e UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("place search upstream returned %d: %s", e.Status, e.Msg)
	}
	return "place search upstream failed: " + e.Msg
}

// Card is a search hit reshaped into the internal venue-card shape.
type Card struct {
	ExternalPlaceID string   `json:"external_place_id"`
	Name            string   `json:"name"`
	City            string   `json:"city"`
	Address         string   `json:"address"`
	Category        string   `json:"category"`
	Rating          float64  `json:"rating"`
	PhotoRefs       []string `json:"photo_refs"`
}

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewClient(cfg config.PlacesConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID          string   `json:"place_id"`
		Name             string   `json:"name"`
		FormattedAddress string   `json:"formatted_address"`
		Rating           float64  `json:"rating"`
		Types            []string `json:"types"`
		Photos           []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Search runs one text query against the upstream and reshapes the response.
// The optional city is appended to the query text, mirroring how the search
// UI scopes results.
func (c *Client) Search(ctx context.Context, query, city string) ([]Card, error) {
	text := strings.TrimSpace(query)
	if city != "" {
		text = strings.TrimSpace(text + " in " + city)
	}
	if text == "" {
		return nil, UpstreamError{Msg: "empty query"}
	}

	params := url.Values{}
	params.Set("query", text)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/textsearch/json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, UpstreamError{Msg: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, UpstreamError{Status: resp.StatusCode, Msg: "non-200 response"}
	}

	var payload textSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, UpstreamError{Msg: "decode response: " + err.Error()}
	}
	if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
		return nil, UpstreamError{Msg: payload.Status + ": " + payload.ErrorMessage}
	}

	cards := make([]Card, 0, len(payload.Results))
	for _, result := range payload.Results {
		card := Card{
			ExternalPlaceID: result.PlaceID,
			Name:            result.Name,
			City:            strings.ToLower(city),
			Address:         result.FormattedAddress,
			Rating:          result.Rating,
		}
		if len(result.Types) > 0 {
			card.Category = result.Types[0]
		}
		for _, photo := range result.Photos {
			if photo.PhotoReference != "" {
				card.PhotoRefs = append(card.PhotoRefs, photo.PhotoReference)
			}
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// Photo fetches a photo by reference using the server's credentials and
// returns the body stream with its content type. The caller must close the
// reader.
func (c *Client) Photo(ctx context.Context, ref string, maxWidth int) (io.ReadCloser, string, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, "", UpstreamError{Msg: "empty photo reference"}
	}
	if maxWidth <= 0 {
		maxWidth = 640
	}

	params := url.Values{}
	params.Set("photo_reference", ref)
	params.Set("maxwidth", fmt.Sprintf("%d", maxWidth))
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/photo?"+params.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build photo request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", UpstreamError{Msg: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", UpstreamError{Status: resp.StatusCode, Msg: "non-200 response"}
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
