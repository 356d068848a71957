package modaics

import (
	"context"
	"encoding/json"

	"github.com/modaics/modaics-go/internal/store"
	"github.com/modaics/modaics-go/internal/types"
	"github.com/pkg/errors"
)

// itemService implements the ItemService interface
type itemService struct {
	client *Client
}

// Add submits a new listing. An offline classification enqueues the item
// durably for later replay and still surfaces ErrOffline, so callers know
// the submission is deferred rather than done.
func (s *itemService) Add(ctx context.Context, item *NewItem) (*AddItemResult, error) {
	result, err := s.submit(ctx, item)
	if err == nil {
		return result, nil
	}

	if IsOffline(err) && s.client.store != nil {
		payload, marshalErr := json.Marshal(item)
		if marshalErr != nil {
			return nil, errors.Wrap(marshalErr, "failed to queue item")
		}
		if _, qErr := s.client.store.Enqueue(item.Title, item.OwnerID, payload); qErr != nil {
			if s.client.logger() != nil {
				s.client.logger().Error("Failed to enqueue offline item", "title", item.Title, "error", qErr)
			}
			return nil, qErr
		}
		if s.client.logger() != nil {
			s.client.logger().Info("Item queued for later submission", "title", item.Title)
		}
	}

	return nil, err
}

func (s *itemService) submit(ctx context.Context, item *NewItem) (*AddItemResult, error) {
	var result AddItemResult
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "add_item",
		Method:       "POST",
		Path:         "/add_item",
		Body:         item,
		RequiresAuth: true,
		Timeout:      s.client.config().UploadTimeout,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *itemService) Pending() ([]*store.PendingItem, error) {
	if s.client.store == nil {
		return nil, nil
	}
	return s.client.store.Pending()
}

// FlushQueue replays queued submissions in enqueue order. Each entry gets
// exactly one network call; successes are removed, failures stay queued.
// An offline failure stops the flush; other rejections are skipped so one
// bad entry cannot block the rest.
func (s *itemService) FlushQueue(ctx context.Context) (int, error) {
	if s.client.store == nil {
		return 0, nil
	}

	pending, err := s.client.store.Pending()
	if err != nil {
		return 0, err
	}

	flushed := 0
	for _, entry := range pending {
		var item NewItem
		if err := json.Unmarshal(entry.Payload, &item); err != nil {
			// Corrupt entry: drop it rather than wedging the queue.
			if s.client.logger() != nil {
				s.client.logger().Warn("Dropping corrupt queue entry", "id", entry.ID, "error", err)
			}
			_ = s.client.store.Remove(entry.ID)
			continue
		}

		if _, err := s.submit(ctx, &item); err != nil {
			if IsOffline(err) {
				// Still offline: nothing further can succeed.
				if s.client.logger() != nil {
					s.client.logger().Warn("Queue flush stopped", "id", entry.ID, "error", err)
				}
				return flushed, err
			}
			// Rejected entry: leave it queued and keep going so it cannot
			// wedge the entries behind it.
			if s.client.logger() != nil {
				s.client.logger().Warn("Queued submission rejected", "id", entry.ID, "error", err)
			}
			continue
		}

		if err := s.client.store.Remove(entry.ID); err != nil {
			return flushed, err
		}
		flushed++
	}

	return flushed, nil
}
