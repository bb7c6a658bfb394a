package firestore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/sixnames/next-marketplace-sub004/internal/platform/config"
)

// Provider lazily constructs the shared Firestore client from configuration.
// Client is safe for concurrent use; the provider guards first creation.
type Provider struct {
	cfg  config.FirestoreConfig
	opts []option.ClientOption

	mu     sync.Mutex
	client *firestore.Client
}

// NewProvider builds a provider. Extra client options are mainly useful in
// tests pointing the client at the emulator.
func NewProvider(cfg config.FirestoreConfig, opts ...option.ClientOption) *Provider {
	return &Provider{cfg: cfg, opts: opts}
}

// Client returns the shared Firestore client, creating it on first use.
// A failed creation is not cached: the next call retries.
func (p *Provider) Client(ctx context.Context) (*firestore.Client, error) {
	if p == nil {
		return nil, errors.New("firestore: provider is nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	if p.cfg.ProjectID == "" {
		return nil, errors.New("firestore: project id is empty")
	}

	client, err := firestore.NewClient(ctx, p.cfg.ProjectID, p.opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	p.client = client
	return p.client, nil
}

// Close releases the underlying client if it was created.
func (p *Provider) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}
