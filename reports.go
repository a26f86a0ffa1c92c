package pointsnav

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/pointsnav/go-pointsnav/models"
)

// Dashboard fetches the aggregate dashboard summary.
func (c *Client) Dashboard(ctx context.Context) (*models.DashboardData, error) {
	var out models.DashboardData
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History fetches the purchase history matching the given filters.
func (c *Client) History(ctx context.Context, filters models.ReportFilters) ([]models.Purchase, error) {
	path := "/reports/history"
	if q := filtersQuery(filters); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []models.Purchase
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportCSV streams the server-rendered CSV report to w.
func (c *Client) ExportCSV(ctx context.Context, filters models.ReportFilters, w io.Writer) error {
	return c.download(ctx, "/reports/export/csv", filtersQuery(filters), w)
}

// ExportPDF streams the server-rendered PDF report to w.
func (c *Client) ExportPDF(ctx context.Context, filters models.ReportFilters, w io.Writer) error {
	return c.download(ctx, "/reports/export/pdf", filtersQuery(filters), w)
}

func filtersQuery(f models.ReportFilters) url.Values {
	q := url.Values{}
	if !f.StartDate.IsZero() {
		q.Set("start_date", f.StartDate.Format("2006-01-02"))
	}
	if !f.EndDate.IsZero() {
		q.Set("end_date", f.EndDate.Format("2006-01-02"))
	}
	if f.CardID != "" {
		q.Set("card_id", f.CardID)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	return q
}
