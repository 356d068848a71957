package modaics

import (
	"context"
	"strconv"

	"github.com/modaics/modaics-go/internal/types"
)

// searchService implements the SearchService interface
type searchService struct {
	client *Client
	cache  *responseCache
}

func (s *searchService) ByText(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	key := cacheKey("text", query, strconv.Itoa(limit))
	if cached, ok := s.cache.get(key).(*SearchResponse); ok {
		return cached, nil
	}

	var result SearchResponse
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "search_by_text",
		Method:       "POST",
		Path:         "/search_by_text",
		Body:         map[string]interface{}{"query": query, "limit": limit},
		RequiresAuth: true,
		Timeout:      s.client.config().SearchTimeout,
	}, &result)
	if err != nil {
		return nil, err
	}

	s.cache.put(key, &result)
	if s.client.store != nil {
		_ = s.client.store.AddRecentSearch(query)
	}
	return &result, nil
}

func (s *searchService) ByImage(ctx context.Context, imageData string, limit int) (*SearchResponse, error) {
	var result SearchResponse
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "search_by_image",
		Method:       "POST",
		Path:         "/search_by_image",
		Body:         map[string]interface{}{"image_data": imageData, "limit": limit},
		RequiresAuth: true,
		Timeout:      s.client.config().UploadTimeout,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *searchService) Combined(ctx context.Context, query, imageData string, limit int) (*SearchResponse, error) {
	var result SearchResponse
	err := s.client.t().Execute(ctx, &types.Request{
		Name:   "search_combined",
		Method: "POST",
		Path:   "/search_combined",
		Body: map[string]interface{}{
			"query":      query,
			"image_data": imageData,
			"limit":      limit,
		},
		RequiresAuth: true,
		Timeout:      s.client.config().UploadTimeout,
	}, &result)
	if err != nil {
		return nil, err
	}

	if s.client.store != nil {
		_ = s.client.store.AddRecentSearch(query)
	}
	return &result, nil
}

func (s *searchService) Recent() ([]string, error) {
	if s.client.store == nil {
		return nil, nil
	}
	return s.client.store.RecentSearches()
}
