// Package testutil provides mocks and fixtures shared by package tests.
package testutil

import (
	"context"
	"net/http"

	"github.com/GriffinCanCode/chmon/internal/domain/repository"
	"github.com/GriffinCanCode/chmon/internal/providers/http/client"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/mock"
)

// MockFetcher is a mock implementation of repository.Fetcher. Expectations
// return a JSON body which is decoded into the caller's value.
type MockFetcher struct {
	mock.Mock
}

// GetJSON mocks the GetJSON method.
func (m *MockFetcher) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	args := m.Called(url)
	if err := args.Error(1); err != nil {
		return err
	}
	return sonic.UnmarshalString(args.String(0), out)
}

// PostJSON mocks the PostJSON method.
func (m *MockFetcher) PostJSON(ctx context.Context, url string, body any, out any) error {
	args := m.Called(url, body)
	if err := args.Error(1); err != nil {
		return err
	}
	return sonic.UnmarshalString(args.String(0), out)
}

// GetText mocks the GetText method.
func (m *MockFetcher) GetText(ctx context.Context, url string) (string, error) {
	args := m.Called(url)
	return args.String(0), args.Error(1)
}

// NotFound builds the error the HTTP client returns for a 404 answer.
func NotFound(url string) error {
	return &client.StatusError{Method: http.MethodGet, URL: url, Status: http.StatusNotFound}
}

// MockTransport is a mock implementation of repository.Transport.
type MockTransport struct {
	mock.Mock
}

// Resolve mocks the Resolve method.
func (m *MockTransport) Resolve(ctx context.Context, flavor types.Flavor, kind types.RepositoryKind, id string) (*repository.Package, error) {
	args := m.Called(ctx, flavor, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Package), args.Error(1)
}

// ResolveSource mocks the ResolveSource method.
func (m *MockTransport) ResolveSource(ctx context.Context, flavor types.Flavor, rawURL string) (*repository.Package, error) {
	args := m.Called(ctx, flavor, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Package), args.Error(1)
}

// MatchFingerprints mocks the MatchFingerprints method.
func (m *MockTransport) MatchFingerprints(ctx context.Context, flavor types.Flavor, fingerprints []uint32) ([]repository.FingerprintMatch, error) {
	args := m.Called(ctx, flavor, fingerprints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.FingerprintMatch), args.Error(1)
}

// Refresh mocks the Refresh method.
func (m *MockTransport) Refresh(ctx context.Context, flavor types.Flavor, kind types.RepositoryKind, ids []string) (map[string]*repository.Package, error) {
	args := m.Called(ctx, flavor, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*repository.Package), args.Error(1)
}

// Changelog mocks the Changelog method.
func (m *MockTransport) Changelog(ctx context.Context, flavor types.Flavor, pkg *repository.Package, release repository.Release) (string, error) {
	args := m.Called(ctx, flavor, pkg, release)
	return args.String(0), args.Error(1)
}
