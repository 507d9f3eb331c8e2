package storyblok

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrUnsupportedResourceType  = errors.New("unsupported resource type")
	ErrUnsupportedOperationType = errors.New("unsupported operation type")
	ErrNoClientForResource      = errors.New("no client configured for resource")
)

// Batch operation types.
const (
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// Batch resources.
const (
	ResourceStory      = "story"
	ResourceStoryUUID  = "story_uuid"
	ResourceManagement = "management"
)

// StoryGetter is the part of DeliveryClient a batch needs.
type StoryGetter interface {
	GetStoryBySlug(ctx context.Context, slug string) (*Response, error)
	GetStoryByUUID(ctx context.Context, uuid string) (*Response, error)
}

// ManagementRequester is the part of ManagementClient a batch needs.
type ManagementRequester interface {
	Get(ctx context.Context, path string, options *Options) (*Response, error)
	Post(ctx context.Context, path string, payload any) (*Response, error)
	Put(ctx context.Context, path string, payload any) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)
}

// BatchOperation represents a single operation in a batch.
type BatchOperation struct {
	ID       string
	Type     string // "get", "create", "update", "delete"
	Resource string // "story", "story_uuid", "management"
	// Path is the slug or uuid for stories, the API path for management.
	Path     string
	Options  *Options
	Payload  any
	Callback func(result *BatchResult)
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string        `json:"id"                 yaml:"id"`
	Success  bool          `json:"success"            yaml:"success"`
	Response *Response     `json:"response,omitempty" yaml:"response,omitempty"`
	Error    error         `json:"-"                  yaml:"-"`
	Duration time.Duration `json:"duration"           yaml:"duration"`
}

// BatchExecutor runs batch operations with bounded concurrency.
type BatchExecutor struct {
	stories     StoryGetter
	management  ManagementRequester
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor. Either client may be nil;
// operations for a missing client fail with ErrNoClientForResource.
func NewBatchExecutor(stories StoryGetter, management ManagementRequester, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultBatchConcurrency
	}

	return &BatchExecutor{
		stories:     stories,
		management:  management,
		concurrency: concurrency,
		timeout:     constants.DefaultBatchTimeout,
	}
}

// SetTimeout sets the timeout for each operation.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations. Results are in operation order; a
// failed operation never stops the others.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) []BatchResult {
	results := make([]BatchResult, len(operations))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, operation := range operations {
		waitGroup.Add(1)

		go func(index int, operation BatchOperation) {
			defer waitGroup.Done()

			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}
		}(index, operation)
	}

	waitGroup.Wait()

	return results
}

func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	var (
		resp *Response
		err  error
	)

	switch operation.Resource {
	case ResourceStory, ResourceStoryUUID:
		resp, err = b.executeStoryOperation(ctx, operation)
	case ResourceManagement:
		resp, err = b.executeManagementOperation(ctx, operation)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedResourceType, operation.Resource)
	}

	return &BatchResult{
		ID:       operation.ID,
		Success:  err == nil,
		Response: resp,
		Error:    err,
	}
}

func (b *BatchExecutor) executeStoryOperation(ctx context.Context, operation BatchOperation) (*Response, error) {
	if b.stories == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoClientForResource, operation.Resource)
	}

	if operation.Type != OperationGet {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnsupportedOperationType, operation.Type, operation.Resource)
	}

	if operation.Resource == ResourceStoryUUID {
		return b.stories.GetStoryByUUID(ctx, operation.Path)
	}

	return b.stories.GetStoryBySlug(ctx, operation.Path)
}

func (b *BatchExecutor) executeManagementOperation(ctx context.Context, operation BatchOperation) (*Response, error) {
	if b.management == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoClientForResource, operation.Resource)
	}

	switch operation.Type {
	case OperationGet:
		return b.management.Get(ctx, operation.Path, operation.Options)
	case OperationCreate:
		return b.management.Post(ctx, operation.Path, operation.Payload)
	case OperationUpdate:
		return b.management.Put(ctx, operation.Path, operation.Payload)
	case OperationDelete:
		return b.management.Delete(ctx, operation.Path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperationType, operation.Type)
	}
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		operations: make([]BatchOperation, 0),
	}
}

func (b *BatchBuilder) add(operation BatchOperation) *BatchBuilder {
	b.operations = append(b.operations, operation)

	return b
}

// AddGetStory adds a story lookup by full slug.
func (b *BatchBuilder) AddGetStory(id, slug string) *BatchBuilder {
	return b.add(BatchOperation{ID: id, Type: OperationGet, Resource: ResourceStory, Path: slug})
}

// AddGetStoryByUUID adds a story lookup by uuid.
func (b *BatchBuilder) AddGetStoryByUUID(id, uuid string) *BatchBuilder {
	return b.add(BatchOperation{ID: id, Type: OperationGet, Resource: ResourceStoryUUID, Path: uuid})
}

// AddManagementGet adds a management GET.
func (b *BatchBuilder) AddManagementGet(id, path string, options *Options) *BatchBuilder {
	return b.add(BatchOperation{ID: id, Type: OperationGet, Resource: ResourceManagement, Path: path, Options: options})
}

// AddCreate adds a management POST.
func (b *BatchBuilder) AddCreate(id, path string, payload any) *BatchBuilder {
	return b.add(BatchOperation{ID: id, Type: OperationCreate, Resource: ResourceManagement, Path: path, Payload: payload})
}

// AddUpdate adds a management PUT.
func (b *BatchBuilder) AddUpdate(id, path string, payload any) *BatchBuilder {
	return b.add(BatchOperation{ID: id, Type: OperationUpdate, Resource: ResourceManagement, Path: path, Payload: payload})
}

// AddDelete adds a management DELETE.
func (b *BatchBuilder) AddDelete(id, path string) *BatchBuilder {
	return b.add(BatchOperation{ID: id, Type: OperationDelete, Resource: ResourceManagement, Path: path})
}

// Build returns the operations added so far.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}
