package pointsnav

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pointsnav/go-pointsnav/models"
)

// Cards lists the authenticated user's registered cards.
func (c *Client) Cards(ctx context.Context) ([]models.Card, error) {
	var out []models.Card
	if err := c.do(ctx, http.MethodGet, "/cards", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Card fetches one card by id.
func (c *Client) Card(ctx context.Context, id string) (*models.Card, error) {
	var out models.Card
	if err := c.do(ctx, http.MethodGet, "/cards/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCard registers a new card.
func (c *Client) CreateCard(ctx context.Context, req models.CardRequest) (*models.Card, error) {
	var out models.Card
	if err := c.do(ctx, http.MethodPost, "/cards", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCard edits a card.
func (c *Client) UpdateCard(ctx context.Context, id string, req models.CardRequest) (*models.Card, error) {
	var out models.Card
	if err := c.do(ctx, http.MethodPut, "/cards/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCard removes a card.
func (c *Client) DeleteCard(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("card id is required")
	}
	return c.do(ctx, http.MethodDelete, "/cards/"+id, nil, nil)
}
