package modaics

import (
	"context"
	"strconv"

	"github.com/modaics/modaics-go/internal/types"
)

// sketchbookService implements the SketchbookService interface
type sketchbookService struct {
	client *Client
	cache  *responseCache
}

func (s *sketchbookService) ForBrand(ctx context.Context, brandID string) (*Sketchbook, error) {
	var result Sketchbook
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "sketchbook_brand",
		Method:       "GET",
		Path:         "/sketchbook/brand/" + brandID,
		RequiresAuth: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *sketchbookService) UpdateSettings(ctx context.Context, sketchbookID string, settings *SketchbookSettings) (*Sketchbook, error) {
	var result Sketchbook
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "sketchbook_settings",
		Method:       "PUT",
		Path:         "/sketchbook/" + sketchbookID + "/settings",
		Body:         settings,
		RequiresAuth: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *sketchbookService) Posts(ctx context.Context, sketchbookID string, limit, offset int) ([]*Post, error) {
	var result struct {
		Posts []*Post `json:"posts"`
	}
	err := s.client.t().Execute(ctx, &types.Request{
		Name:   "sketchbook_posts",
		Method: "GET",
		Path:   "/sketchbook/" + sketchbookID + "/posts",
		Query: map[string]string{
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		},
		RequiresAuth: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.Posts, nil
}

func (s *sketchbookService) CreatePost(ctx context.Context, sketchbookID string, post *NewPost) (*Post, error) {
	var result Post
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "sketchbook_create_post",
		Method:       "POST",
		Path:         "/sketchbook/" + sketchbookID + "/posts",
		Body:         post,
		RequiresAuth: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *sketchbookService) DeletePost(ctx context.Context, postID string) error {
	return s.client.t().Execute(ctx, &types.Request{
		Name:         "sketchbook_delete_post",
		Method:       "DELETE",
		Path:         "/sketchbook/posts/" + postID,
		RequiresAuth: true,
	}, nil)
}

func (s *sketchbookService) Poll(ctx context.Context, postID string) (*Poll, error) {
	var result Poll
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "sketchbook_poll",
		Method:       "GET",
		Path:         "/sketchbook/posts/" + postID + "/poll",
		RequiresAuth: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *sketchbookService) Vote(ctx context.Context, postID, optionID, userID string) (*Poll, error) {
	var result Poll
	err := s.client.t().Execute(ctx, &types.Request{
		Name:   "sketchbook_vote",
		Method: "POST",
		Path:   "/sketchbook/posts/" + postID + "/vote",
		Body: map[string]string{
			"option_id": optionID,
			"user_id":   userID,
		},
		RequiresAuth: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *sketchbookService) React(ctx context.Context, postID, userID, emoji string) error {
	return s.client.t().Execute(ctx, &types.Request{
		Name:   "sketchbook_react",
		Method: "POST",
		Path:   "/sketchbook/posts/" + postID + "/react",
		Body: map[string]string{
			"user_id": userID,
			"emoji":   emoji,
		},
		RequiresAuth: true,
	}, nil)
}

func (s *sketchbookService) Unreact(ctx context.Context, postID, userID string) error {
	return s.client.t().Execute(ctx, &types.Request{
		Name:         "sketchbook_unreact",
		Method:       "DELETE",
		Path:         "/sketchbook/posts/" + postID + "/react",
		Query:        map[string]string{"user_id": userID},
		RequiresAuth: true,
	}, nil)
}

func (s *sketchbookService) Membership(ctx context.Context, sketchbookID, userID string) (*Membership, error) {
	var result Membership
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "sketchbook_membership",
		Method:       "GET",
		Path:         "/sketchbook/" + sketchbookID + "/membership/" + userID,
		RequiresAuth: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *sketchbookService) Join(ctx context.Context, sketchbookID, userID string) (*Membership, error) {
	var result Membership
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "sketchbook_join",
		Method:       "POST",
		Path:         "/sketchbook/" + sketchbookID + "/membership",
		Body:         map[string]string{"user_id": userID},
		RequiresAuth: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *sketchbookService) SpendEligibility(ctx context.Context, sketchbookID, userID string) (*SpendEligibility, error) {
	var result SpendEligibility
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "sketchbook_spend_eligibility",
		Method:       "GET",
		Path:         "/sketchbook/" + sketchbookID + "/spend-eligibility/" + userID,
		RequiresAuth: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *sketchbookService) Feed(ctx context.Context, limit int) ([]*FeedEntry, error) {
	key := cacheKey("feed", strconv.Itoa(limit))
	if cached, ok := s.cache.get(key).([]*FeedEntry); ok {
		return cached, nil
	}

	var result struct {
		Feed []*FeedEntry `json:"feed"`
	}
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "community_feed",
		Method:       "GET",
		Path:         "/community/sketchbook-feed",
		Query:        map[string]string{"limit": strconv.Itoa(limit)},
		RequiresAuth: true,
	}, &result)
	if err != nil {
		return nil, err
	}

	s.cache.put(key, result.Feed)
	return result.Feed, nil
}
