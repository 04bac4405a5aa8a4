// Package wishlistclient talks to the wishlist REST API the way a viewer
// does: fetch the wishlist, reserve or contribute, refetch.
package wishlistclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
)

// APIError is a non-2xx response. Item is set when the server attached the
// current item state to a rejected reserve or contribute.
type APIError struct {
	Status  int
	Code    string
	Message string
	Item    *model.ItemView
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithToken sends requests as an authenticated user.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL is the server root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetWishlist returns the view of slug for this client's caller.
func (c *Client) GetWishlist(ctx context.Context, slug string) (*model.WishlistView, error) {
	var response struct {
		Wishlist model.WishlistView `json:"wishlist"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/wishlists/"+url.PathEscape(slug), nil, &response); err != nil {
		return nil, err
	}
	return &response.Wishlist, nil
}

// Reserve reserves a regular item. guestName is ignored by the server when
// the client carries a token.
func (c *Client) Reserve(ctx context.Context, itemID uuid.UUID, guestName string) (*model.ItemView, error) {
	body := map[string]interface{}{}
	if guestName != "" {
		body["guest_name"] = guestName
	}

	var response struct {
		Item model.ItemView `json:"item"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/items/"+itemID.String()+"/reserve", body, &response); err != nil {
		return nil, err
	}
	return &response.Item, nil
}

// Contribute adds amount toward a group gift.
func (c *Client) Contribute(ctx context.Context, itemID uuid.UUID, guestName string, amount model.Money) (*model.ItemView, error) {
	body := map[string]interface{}{"amount": amount}
	if guestName != "" {
		body["guest_name"] = guestName
	}

	var response struct {
		Item model.ItemView `json:"item"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/items/"+itemID.String()+"/contribute", body, &response); err != nil {
		return nil, err
	}
	return &response.Item, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error   string          `json:"error"`
			Message string          `json:"message"`
			Item    *model.ItemView `json:"item"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Code = payload.Error
			apiErr.Message = payload.Message
			apiErr.Item = payload.Item
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
