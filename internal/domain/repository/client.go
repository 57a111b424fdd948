package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/chmon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"go.uber.org/zap"
)

// ErrUnknownKind is returned for a kind no backend is registered for.
var ErrUnknownKind = errors.New("no backend for repository kind")

// Transport is everything the engine needs from remote sources.
type Transport interface {
	Resolve(ctx context.Context, flavor types.Flavor, kind types.RepositoryKind, id string) (*Package, error)
	ResolveSource(ctx context.Context, flavor types.Flavor, rawURL string) (*Package, error)
	MatchFingerprints(ctx context.Context, flavor types.Flavor, fingerprints []uint32) ([]FingerprintMatch, error)
	Refresh(ctx context.Context, flavor types.Flavor, kind types.RepositoryKind, ids []string) (map[string]*Package, error)
	Changelog(ctx context.Context, flavor types.Flavor, pkg *Package, release Release) (string, error)
}

// Client dispatches to one Backend per kind.
type Client struct {
	backends map[types.RepositoryKind]Backend
	metrics  *monitoring.Metrics
	logger   *logging.Logger
}

// NewClient creates a Client serving the given backends
func NewClient(metrics *monitoring.Metrics, logger *logging.Logger, backends ...Backend) *Client {
	c := &Client{
		backends: make(map[types.RepositoryKind]Backend, len(backends)),
		metrics:  metrics,
		logger:   logger.Component("repository"),
	}
	for _, b := range backends {
		c.backends[b.Kind()] = b
	}
	return c
}

// Backend returns the backend registered for kind
func (c *Client) Backend(kind types.RepositoryKind) (Backend, error) {
	b, ok := c.backends[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return b, nil
}

// observe records the duration and outcome of one backend call.
func (c *Client) observe(kind types.RepositoryKind, start time.Time, err error) {
	c.metrics.RecordRepositoryFetch(string(kind), time.Since(start), err)
	if err != nil && !types.IsNotFound(err) {
		c.logger.Debug("repository call failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// Resolve fetches one package by id
func (c *Client) Resolve(ctx context.Context, flavor types.Flavor, kind types.RepositoryKind, id string) (*Package, error) {
	b, err := c.Backend(kind)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	pkg, err := b.Fetch(ctx, flavor, id)
	c.observe(kind, start, err)
	return pkg, err
}

// ResolveSource fetches the package published at a project URL
func (c *Client) ResolveSource(ctx context.Context, flavor types.Flavor, rawURL string) (*Package, error) {
	for _, b := range c.backends {
		resolver, ok := b.(SourceResolver)
		if !ok {
			continue
		}
		id, err := resolver.ParseSource(rawURL)
		if err != nil {
			return nil, err
		}
		return c.Resolve(ctx, flavor, b.Kind(), id)
	}
	return nil, &types.RepositoryError{Kind: types.KindGit, ID: rawURL, Reason: types.ReasonUnsupported}
}

// MatchFingerprints asks the content addressed source about fingerprints
func (c *Client) MatchFingerprints(ctx context.Context, flavor types.Flavor, fingerprints []uint32) ([]FingerprintMatch, error) {
	b, err := c.Backend(types.KindCurse)
	if err != nil {
		return nil, err
	}
	matcher, ok := b.(FingerprintMatcher)
	if !ok {
		return nil, &types.RepositoryError{Kind: types.KindCurse, Reason: types.ReasonUnsupported}
	}
	start := time.Now()
	matches, err := matcher.MatchFingerprints(ctx, flavor, fingerprints)
	c.observe(types.KindCurse, start, err)
	return matches, err
}

// Refresh fetches the current state of many packages of one kind
func (c *Client) Refresh(ctx context.Context, flavor types.Flavor, kind types.RepositoryKind, ids []string) (map[string]*Package, error) {
	b, err := c.Backend(kind)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	pkgs, err := b.Batch(ctx, flavor, ids)
	c.observe(kind, start, err)
	return pkgs, err
}

// Changelog returns the changelog of a release of pkg
func (c *Client) Changelog(ctx context.Context, flavor types.Flavor, pkg *Package, release Release) (string, error) {
	b, err := c.Backend(pkg.Kind())
	if err != nil {
		return "", err
	}
	return b.Changelog(ctx, flavor, pkg, release)
}
