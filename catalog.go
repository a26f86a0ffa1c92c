package pointsnav

import (
	"context"
	"net/http"

	"github.com/pointsnav/go-pointsnav/models"
)

// Cache keys for last-good reference data.
const (
	cacheKeyPrograms   = "programs"
	cacheKeyBrands     = "brands"
	cacheKeyPromotions = "promotions"
)

// Programs lists the available points programs. A fetch failure falls back
// to the last-good cached copy when one exists.
func (c *Client) Programs(ctx context.Context) ([]models.PointsProgram, error) {
	return cachedGet[[]models.PointsProgram](ctx, c, "/programs", cacheKeyPrograms)
}

// Program fetches one points program by id.
func (c *Client) Program(ctx context.Context, id string) (*models.PointsProgram, error) {
	var out models.PointsProgram
	if err := c.do(ctx, http.MethodGet, "/programs/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Brands lists the available card brands. A fetch failure falls back to
// the last-good cached copy when one exists.
func (c *Client) Brands(ctx context.Context) ([]models.CardBrand, error) {
	return cachedGet[[]models.CardBrand](ctx, c, "/brands", cacheKeyBrands)
}

// Admin operations for the reference entities. The server enforces the
// ADMIN role; these calls simply fail for regular users.

// CreateBrand registers a card brand.
func (c *Client) CreateBrand(ctx context.Context, req models.BrandRequest) (*models.CardBrand, error) {
	var out models.CardBrand
	if err := c.do(ctx, http.MethodPost, "/admin/brands", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBrand edits a card brand.
func (c *Client) UpdateBrand(ctx context.Context, id string, req models.BrandRequest) (*models.CardBrand, error) {
	var out models.CardBrand
	if err := c.do(ctx, http.MethodPut, "/admin/brands/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBrand removes a card brand.
func (c *Client) DeleteBrand(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/brands/"+id, nil, nil)
}

// CreateProgram registers a points program.
func (c *Client) CreateProgram(ctx context.Context, req models.ProgramRequest) (*models.PointsProgram, error) {
	var out models.PointsProgram
	if err := c.do(ctx, http.MethodPost, "/admin/programs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProgram edits a points program.
func (c *Client) UpdateProgram(ctx context.Context, id string, req models.ProgramRequest) (*models.PointsProgram, error) {
	var out models.PointsProgram
	if err := c.do(ctx, http.MethodPut, "/admin/programs/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProgram removes a points program.
func (c *Client) DeleteProgram(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/programs/"+id, nil, nil)
}
