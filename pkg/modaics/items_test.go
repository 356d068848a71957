package modaics

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/modaics/modaics-go/internal/store"
	"github.com/modaics/modaics-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestClientWithStore(t *testing.T, mockTransport *MockTransport) *Client {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "modaics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	client := newTestClient(mockTransport)
	client.store = st
	return client
}

func TestItemService_Add(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	response := `{"item_id": "item-42", "status": "created"}`

	mockTransport.On("Execute", mock.Anything, mock.MatchedBy(func(req *types.Request) bool {
		item, ok := req.Body.(*NewItem)
		return ok &&
			req.Method == "POST" &&
			req.Path == "/add_item" &&
			req.RequiresAuth &&
			item.Title == "Wool overcoat"
	}), mock.Anything).Return(response, nil).Once()

	result, err := client.Items.Add(context.Background(), &NewItem{
		Title:   "Wool overcoat",
		Brand:   "A.P.C.",
		Price:   120,
		OwnerID: "user-9",
	})

	assert.NoError(t, err)
	assert.Equal(t, "item-42", result.ItemID)
	assert.Equal(t, "created", result.Status)

	mockTransport.AssertExpectations(t)
}

func TestItemService_Add_OfflineQueues(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClientWithStore(t, mockTransport)

	mockTransport.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return("", types.ErrOffline).Once()

	result, err := client.Items.Add(context.Background(), &NewItem{
		Title:   "Silk blouse",
		OwnerID: "user-9",
		Price:   65,
	})

	assert.Nil(t, result)
	assert.True(t, IsOffline(err))

	pending, err := client.Items.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Silk blouse", pending[0].Title)
	assert.Equal(t, "user-9", pending[0].OwnerID)

	mockTransport.AssertExpectations(t)
}

func TestItemService_Add_OfflineReplacesDuplicate(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClientWithStore(t, mockTransport)

	mockTransport.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return("", types.ErrOffline).Twice()

	// Same title and owner: the second enqueue replaces the first.
	_, err := client.Items.Add(context.Background(), &NewItem{Title: "Silk blouse", OwnerID: "user-9", Price: 65})
	assert.True(t, IsOffline(err))
	_, err = client.Items.Add(context.Background(), &NewItem{Title: "Silk blouse", OwnerID: "user-9", Price: 60})
	assert.True(t, IsOffline(err))

	pending, err := client.Items.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	mockTransport.AssertExpectations(t)
}

func TestItemService_Add_ServerErrorNotQueued(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClientWithStore(t, mockTransport)

	mockTransport.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return("", types.ErrServerError).Once()

	_, err := client.Items.Add(context.Background(), &NewItem{Title: "Silk blouse", OwnerID: "user-9"})
	assert.Error(t, err)
	assert.False(t, IsOffline(err))

	pending, err := client.Items.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	mockTransport.AssertExpectations(t)
}

func TestItemService_FlushQueue(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClientWithStore(t, mockTransport)

	mockTransport.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return("", types.ErrOffline).Twice()

	_, err := client.Items.Add(context.Background(), &NewItem{Title: "Silk blouse", OwnerID: "user-9"})
	assert.True(t, IsOffline(err))
	_, err = client.Items.Add(context.Background(), &NewItem{Title: "Wool overcoat", OwnerID: "user-9"})
	assert.True(t, IsOffline(err))

	// Back online: each queued entry gets exactly one submission.
	mockTransport.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"item_id": "item-1", "status": "created"}`, nil).Twice()

	flushed, err := client.Items.FlushQueue(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, flushed)

	pending, err := client.Items.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	mockTransport.AssertExpectations(t)
}

func TestItemService_FlushQueue_SkipsRejectedEntry(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClientWithStore(t, mockTransport)

	mockTransport.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return("", types.ErrOffline).Twice()

	_, err := client.Items.Add(context.Background(), &NewItem{Title: "Silk blouse", OwnerID: "user-9"})
	assert.True(t, IsOffline(err))
	_, err = client.Items.Add(context.Background(), &NewItem{Title: "Wool overcoat", OwnerID: "user-9"})
	assert.True(t, IsOffline(err))

	// The first replay is rejected outright; the entry stays queued and the
	// flush moves on to the next one.
	rejection := &types.Error{Code: "SERVER_ERROR", StatusCode: 422, Err: types.ErrServerError}
	mockTransport.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return("", rejection).Once()
	mockTransport.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"item_id": "item-1", "status": "created"}`, nil).Once()

	flushed, err := client.Items.FlushQueue(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, flushed)

	pending, pErr := client.Items.Pending()
	require.NoError(t, pErr)
	assert.Len(t, pending, 1)

	mockTransport.AssertExpectations(t)
}

func TestItemService_FlushQueue_StopsOnFailure(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClientWithStore(t, mockTransport)

	mockTransport.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return("", types.ErrOffline).Twice()

	_, err := client.Items.Add(context.Background(), &NewItem{Title: "Silk blouse", OwnerID: "user-9"})
	assert.True(t, IsOffline(err))
	_, err = client.Items.Add(context.Background(), &NewItem{Title: "Wool overcoat", OwnerID: "user-9"})
	assert.True(t, IsOffline(err))

	// Still offline at flush time: flush stops at the first failure and the
	// queue is left intact.
	mockTransport.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return("", types.ErrOffline).Once()

	flushed, err := client.Items.FlushQueue(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, flushed)

	pending, pErr := client.Items.Pending()
	require.NoError(t, pErr)
	assert.Len(t, pending, 2)

	mockTransport.AssertExpectations(t)
}
