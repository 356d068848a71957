package modaics

import (
	"context"

	"github.com/modaics/modaics-go/internal/types"
)

// healthService implements the HealthService interface
type healthService struct {
	client *Client
}

func (s *healthService) Check(ctx context.Context) (*HealthStatus, error) {
	var result HealthStatus
	err := s.client.t().Execute(ctx, &types.Request{
		Name:   "health",
		Method: "GET",
		Path:   "/health",
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
