package rest

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) AvailableMargin(ctx context.Context) (float64, error) {
	params := url.Values{}
	params.Set("segment", "SEC")

	var resp upstoxResponse[struct {
		Equity struct {
			AvailableMargin float64 `json:"available_margin"`
			UsedMargin      float64 `json:"used_margin"`
		} `json:"equity"`
	}]
	if err := c.doRequest(ctx, http.MethodGet, "/user/get-funds-and-margin", params, nil, &resp); err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return resp.Data.Equity.AvailableMargin, nil
}
