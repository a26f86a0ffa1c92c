package pointsnav

import (
	"context"
	"net/http"

	"github.com/pointsnav/go-pointsnav/models"
)

// Promotions lists all promotions. A fetch failure falls back to the
// last-good cached copy when one exists.
func (c *Client) Promotions(ctx context.Context) ([]models.Promotion, error) {
	return cachedGet[[]models.Promotion](ctx, c, "/promotions", cacheKeyPromotions)
}

// ActivePromotions lists only the promotions the server considers
// currently active.
func (c *Client) ActivePromotions(ctx context.Context) ([]models.Promotion, error) {
	var out []models.Promotion
	if err := c.do(ctx, http.MethodGet, "/promotions/active", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Promotion fetches one promotion by id.
func (c *Client) Promotion(ctx context.Context, id string) (*models.Promotion, error) {
	var out models.Promotion
	if err := c.do(ctx, http.MethodGet, "/promotions/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
