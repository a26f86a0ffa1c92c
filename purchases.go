package pointsnav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pointsnav/go-pointsnav/models"
)

// Purchases lists the authenticated user's purchases.
func (c *Client) Purchases(ctx context.Context) ([]models.Purchase, error) {
	var out []models.Purchase
	if err := c.do(ctx, http.MethodGet, "/purchases", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Purchase fetches one purchase by id.
func (c *Client) Purchase(ctx context.Context, id string) (*models.Purchase, error) {
	var out models.Purchase
	if err := c.do(ctx, http.MethodGet, "/purchases/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePurchase logs a purchase. The server computes the earned points
// and expected credit date from the owning card; any client-side point
// total is a preview only.
func (c *Client) CreatePurchase(ctx context.Context, req models.PurchaseRequest) (*models.Purchase, error) {
	var out models.Purchase
	if err := c.do(ctx, http.MethodPost, "/purchases", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePurchase edits a purchase.
func (c *Client) UpdatePurchase(ctx context.Context, id string, req models.PurchaseRequest) (*models.Purchase, error) {
	var out models.Purchase
	if err := c.do(ctx, http.MethodPut, "/purchases/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePurchaseStatus moves a purchase between PENDING, CREDITED and
// CANCELLED.
func (c *Client) UpdatePurchaseStatus(ctx context.Context, id string, status models.PurchaseStatus) (*models.Purchase, error) {
	var out models.Purchase
	body := struct {
		Status models.PurchaseStatus `json:"status"`
	}{Status: status}
	if err := c.do(ctx, http.MethodPatch, "/purchases/"+id+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePurchase removes a purchase.
func (c *Client) DeletePurchase(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("purchase id is required")
	}
	return c.do(ctx, http.MethodDelete, "/purchases/"+id, nil, nil)
}

// UploadReceipt attaches a receipt file to a purchase via multipart upload
// and returns the updated purchase.
func (c *Client) UploadReceipt(ctx context.Context, id, filename string, file io.Reader) (*models.Purchase, error) {
	if c.Token() == "" {
		return nil, ErrUnauthenticated
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read receipt file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uri("/purchases/"+id+"/receipt"), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out models.Purchase
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
