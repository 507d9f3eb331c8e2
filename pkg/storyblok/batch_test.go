package storyblok_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

var errStoryMissing = errors.New("story missing")

// MockStoryGetter implements storyblok.StoryGetter for testing.
type MockStoryGetter struct {
	mock.Mock
}

func (m *MockStoryGetter) GetStoryBySlug(ctx context.Context, slug string) (*storyblok.Response, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*storyblok.Response), args.Error(1)
}

func (m *MockStoryGetter) GetStoryByUUID(ctx context.Context, uuid string) (*storyblok.Response, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*storyblok.Response), args.Error(1)
}

// MockManagement implements storyblok.ManagementRequester for testing.
type MockManagement struct {
	mock.Mock
}

func (m *MockManagement) response(args mock.Arguments) (*storyblok.Response, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*storyblok.Response), args.Error(1)
}

func (m *MockManagement) Get(ctx context.Context, path string, options *storyblok.Options) (*storyblok.Response, error) {
	return m.response(m.Called(ctx, path, options))
}

func (m *MockManagement) Post(ctx context.Context, path string, payload any) (*storyblok.Response, error) {
	return m.response(m.Called(ctx, path, payload))
}

func (m *MockManagement) Put(ctx context.Context, path string, payload any) (*storyblok.Response, error) {
	return m.response(m.Called(ctx, path, payload))
}

func (m *MockManagement) Delete(ctx context.Context, path string) (*storyblok.Response, error) {
	return m.response(m.Called(ctx, path))
}

func storyResponse(name string) *storyblok.Response {
	return storyblok.NewResponse(200, nil, []byte(`{"story":{"name":"`+name+`"}}`))
}

func TestBatchExecutor_Execute(t *testing.T) {
	stories := &MockStoryGetter{}
	stories.On("GetStoryBySlug", mock.Anything, "home").Return(storyResponse("Home"), nil)
	stories.On("GetStoryBySlug", mock.Anything, "missing").Return(nil, errStoryMissing)
	stories.On("GetStoryByUUID", mock.Anything, "6f1f").Return(storyResponse("About"), nil)

	management := &MockManagement{}
	payload := map[string]any{"story": map[string]any{"name": "New"}}
	management.On("Post", mock.Anything, "spaces/1/stories", payload).Return(storyblok.NewResponse(201, nil, nil), nil)
	management.On("Delete", mock.Anything, "spaces/1/stories/9").Return(storyblok.NewResponse(204, nil, nil), nil)

	operations := storyblok.NewBatchBuilder().
		AddGetStory("home", "home").
		AddGetStory("missing", "missing").
		AddGetStoryByUUID("about", "6f1f").
		AddCreate("create", "spaces/1/stories", payload).
		AddDelete("delete", "spaces/1/stories/9").
		Build()

	executor := storyblok.NewBatchExecutor(stories, management, 2)
	results := executor.Execute(context.Background(), operations)

	require.Len(t, results, 5)

	assert.Equal(t, "home", results[0].ID)
	assert.True(t, results[0].Success)
	name, _ := results[0].Response.Body.Get("story")
	assert.Equal(t, "Home", name.(map[string]any)["name"])

	assert.False(t, results[1].Success)
	require.ErrorIs(t, results[1].Error, errStoryMissing)
	assert.Nil(t, results[1].Response)

	assert.True(t, results[2].Success)
	assert.Equal(t, 201, results[3].Response.StatusCode)
	assert.Equal(t, 204, results[4].Response.StatusCode)

	stories.AssertExpectations(t)
	management.AssertExpectations(t)
}

func TestBatchExecutor_WithCallback(t *testing.T) {
	stories := &MockStoryGetter{}
	stories.On("GetStoryBySlug", mock.Anything, mock.Anything).Return(storyResponse("x"), nil)

	var (
		mu  sync.Mutex
		ids []string
	)

	operations := storyblok.NewBatchBuilder().AddGetStory("a", "a").AddGetStory("b", "b").Build()
	for i := range operations {
		operations[i].Callback = func(result *storyblok.BatchResult) {
			mu.Lock()
			defer mu.Unlock()

			ids = append(ids, result.ID)
		}
	}

	storyblok.NewBatchExecutor(stories, nil, 0).Execute(context.Background(), operations)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestBatchExecutor_Errors(t *testing.T) {
	tests := []struct {
		name      string
		operation storyblok.BatchOperation
		wantErr   error
	}{
		{
			name:      "unknown resource",
			operation: storyblok.BatchOperation{ID: "x", Type: storyblok.OperationGet, Resource: "space"},
			wantErr:   storyblok.ErrUnsupportedResourceType,
		},
		{
			name:      "story write",
			operation: storyblok.BatchOperation{ID: "x", Type: storyblok.OperationDelete, Resource: storyblok.ResourceStory},
			wantErr:   storyblok.ErrUnsupportedOperationType,
		},
		{
			name:      "unknown management type",
			operation: storyblok.BatchOperation{ID: "x", Type: "patch", Resource: storyblok.ResourceManagement},
			wantErr:   storyblok.ErrUnsupportedOperationType,
		},
	}

	executor := storyblok.NewBatchExecutor(&MockStoryGetter{}, &MockManagement{}, 1)

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			results := executor.Execute(context.Background(), []storyblok.BatchOperation{tc.operation})
			require.Len(t, results, 1)
			assert.False(t, results[0].Success)
			require.ErrorIs(t, results[0].Error, tc.wantErr)
		})
	}
}

func TestBatchExecutor_MissingClient(t *testing.T) {
	executor := storyblok.NewBatchExecutor(nil, nil, 1)

	operations := storyblok.NewBatchBuilder().
		AddGetStory("story", "home").
		AddManagementGet("space", "spaces/1", nil).
		Build()

	for _, result := range executor.Execute(context.Background(), operations) {
		require.ErrorIs(t, result.Error, storyblok.ErrNoClientForResource)
	}
}

func TestBatchExecutor_Concurrency(t *testing.T) {
	var (
		running int32
		peak    int32
	)

	stories := &MockStoryGetter{}
	stories.On("GetStoryBySlug", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}

			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
		}).
		Return(storyResponse("x"), nil)

	builder := storyblok.NewBatchBuilder()
	for _, slug := range []string{"a", "b", "c", "d", "e", "f"} {
		builder.AddGetStory(slug, slug)
	}

	results := storyblok.NewBatchExecutor(stories, nil, 2).Execute(context.Background(), builder.Build())
	require.Len(t, results, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestBatchExecutor_Timeout(t *testing.T) {
	stories := &MockStoryGetter{}
	stories.On("GetStoryBySlug", mock.Anything, "slow").
		Return(nil, context.DeadlineExceeded).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		})

	executor := storyblok.NewBatchExecutor(stories, nil, 1)
	executor.SetTimeout(20 * time.Millisecond)

	results := executor.Execute(context.Background(), storyblok.NewBatchBuilder().AddGetStory("slow", "slow").Build())
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Error, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, results[0].Duration, 20*time.Millisecond)
}
