package client

import (
	"context"
	"fmt"
	"net/http"
)

// WaiverChecker asks the external onboarding service whether a client has
// a signed waiver on file. Booking creation refuses client-sourced
// bookings without one when policy demands it.
type WaiverChecker interface {
	HasSignedWaiver(ctx context.Context, clientID string) (bool, error)
}

type WaiverClient struct {
	http *HttpClient
}

func NewWaiverClient(baseURL string) *WaiverClient {
	return &WaiverClient{http: NewHttpClient(baseURL)}
}

func (c *WaiverClient) HasSignedWaiver(ctx context.Context, clientID string) (bool, error) {
	resp, err := c.http.GET(ctx, "/api/v1/waivers/clients/"+clientID)
	if err != nil {
		return false, fmt.Errorf("waiver lookup failed: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("waiver service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Signed bool `json:"signed"`
		} `json:"data"`
	}
	if err := resp.DecodeJSON(&payload); err != nil {
		return false, fmt.Errorf("failed to decode waiver response: %w", err)
	}
	return payload.Data.Signed, nil
}

// StaticWaiverChecker answers from a fixed map; used when no waiver
// service is configured and in tests.
type StaticWaiverChecker map[string]bool

func (s StaticWaiverChecker) HasSignedWaiver(_ context.Context, clientID string) (bool, error) {
	return s[clientID], nil
}
