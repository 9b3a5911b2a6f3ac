package searchvolume

import (
	"context"
)

// MockClient is a configurable mock for testing refresh behavior without a
// provider. Set FetchVolumesFunc to control responses.
type MockClient struct {
	// FetchVolumesFunc is called when FetchVolumes is invoked.
	// If nil, returns an empty BatchResult and nil error.
	FetchVolumesFunc func(ctx context.Context, req *BatchRequest) (*BatchResult, error)

	// Call tracking for verification
	FetchVolumesCalls int
	Requests          []*BatchRequest
}

// NewMockClient creates a new mock provider client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// FetchVolumes implements Client.
func (m *MockClient) FetchVolumes(ctx context.Context, req *BatchRequest) (*BatchResult, error) {
	m.FetchVolumesCalls++
	m.Requests = append(m.Requests, req)
	if m.FetchVolumesFunc != nil {
		return m.FetchVolumesFunc(ctx, req)
	}
	return &BatchResult{StatusCode: 200, Results: map[string]KeywordResult{}}, nil
}

// Reset clears call tracking.
func (m *MockClient) Reset() {
	m.FetchVolumesCalls = 0
	m.Requests = nil
}

// Ensure MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)
