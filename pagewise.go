// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package pagewise turns uploads, web pages and cloud-drive files into
// normalized, paginated sources and stores them.
//
// A Service owns the storage and inference provider and hands out the
// components that use them:
//
//	svc, err := pagewise.NewService(ctx, "./data",
//	    pagewise.WithAIConfig(ai.NewConfig(ai.WithAPIKey(key))))
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//
//	coordinator, err := svc.NewCoordinator()
//	report, err := coordinator.Run(ctx, batch)
package pagewise

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/poiesic/pagewise/ai"
	"github.com/poiesic/pagewise/ai/llm"
	"github.com/poiesic/pagewise/discover"
	"github.com/poiesic/pagewise/extract"
	"github.com/poiesic/pagewise/ingestion"
	"github.com/poiesic/pagewise/storage"
	"github.com/poiesic/pagewise/storage/badger"
	"github.com/poiesic/pagewise/storage/postgres"
)

type Service struct {
	backend  *badger.Backend
	db       *sql.DB
	sources  storage.SourceRepository
	quotas   storage.QuotaRepository
	provider ai.AIProvider
	policy   extract.Policy
	registry *extract.Registry
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig    *ai.Config
	provider    ai.AIProvider
	policy      extract.Policy
	postgresDSN string
	inMemory    bool
	logger      *slog.Logger
}

// WithAIConfig builds the inference provider from cfg. Without a provider
// images, audio and video are reported as unsupported.
func WithAIConfig(cfg *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses an existing provider. The Service closes it.
func WithProvider(provider ai.AIProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithPolicy sets the chunking policy used by every extractor.
func WithPolicy(policy extract.Policy) ServiceOption {
	return func(o *serviceOptions) {
		o.policy = policy
	}
}

// WithPostgres stores sources in PostgreSQL instead of BadgerDB.
// The path given to NewService is ignored.
func WithPostgres(dsn string) ServiceOption {
	return func(o *serviceOptions) {
		o.postgresDSN = dsn
	}
}

// WithInMemory keeps the BadgerDB store in memory.
func WithInMemory() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// WithServiceLogger sets the logger handed to every component.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService opens the store at path and builds the extractor registry.
func NewService(ctx context.Context, path string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		policy: extract.DefaultPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	s := &Service{
		policy: options.policy.Normalize(),
		logger: options.logger,
	}
	if err := s.openStorage(ctx, path, options); err != nil {
		return nil, err
	}

	s.provider = options.provider
	if s.provider == nil && options.aiConfig != nil {
		provider, err := llm.NewProvider(ctx, options.aiConfig)
		if err != nil {
			s.closeStorage()
			return nil, err
		}
		s.provider = provider
	}

	s.registry = extract.DefaultRegistry(s.provider, s.policy)
	return s, nil
}

func (s *Service) openStorage(ctx context.Context, path string, options *serviceOptions) error {
	if options.postgresDSN != "" {
		db, err := postgres.Open(ctx, options.postgresDSN)
		if err != nil {
			return err
		}
		sources, err := postgres.NewSourceRepository(db)
		if err != nil {
			db.Close()
			return err
		}
		quotas, err := postgres.NewQuotaRepository(db)
		if err != nil {
			db.Close()
			return err
		}
		s.db, s.sources, s.quotas = db, sources, quotas
		return nil
	}

	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		return err
	}
	sources, err := badger.NewSourceRepository(backend)
	if err != nil {
		backend.Close()
		return err
	}
	s.backend, s.sources, s.quotas = backend, sources, badger.NewQuotaRepository(backend)
	return nil
}

// Close releases the provider and the store. Every component is closed
// even when an earlier one fails.
func (s *Service) Close() error {
	var errs []error
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if err := s.closeStorage(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Service) closeStorage() error {
	var errs []error
	if err := s.quotas.Close(); err != nil {
		s.logger.Error("error closing quota repository", "err", err)
		errs = append(errs, err)
	}
	if err := s.sources.Close(); err != nil {
		s.logger.Error("error closing source repository", "err", err)
		errs = append(errs, err)
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("error closing postgres", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) Sources() storage.SourceRepository {
	return s.sources
}

func (s *Service) Quotas() storage.QuotaRepository {
	return s.quotas
}

func (s *Service) Registry() *extract.Registry {
	return s.registry
}

func (s *Service) Policy() extract.Policy {
	return s.policy
}

// NewCoordinator creates a batch coordinator writing to the Service's store.
// opts are applied after the Service defaults.
func (s *Service) NewCoordinator(opts ...ingestion.Option) (*ingestion.Coordinator, error) {
	defaults := []ingestion.Option{
		ingestion.WithLogger(s.logger),
		ingestion.WithWebExtractor(extract.DefaultWebPage(s.policy)),
	}
	return ingestion.NewCoordinator(s.registry, s.sources, append(defaults, opts...)...)
}

// NewDiscoverer creates a Discoverer writing to the Service's store.
// opts are applied after the Service defaults.
func (s *Service) NewDiscoverer(searcher discover.Searcher, opts ...discover.Option) (*discover.Discoverer, error) {
	defaults := []discover.Option{
		discover.WithLogger(s.logger),
		discover.WithPolicy(s.policy),
	}
	return discover.NewDiscoverer(searcher, s.sources, append(defaults, opts...)...)
}

// NewDailyQuota creates a discovery quota backed by the Service's store.
func (s *Service) NewDailyQuota(limit int) (*discover.DailyQuota, error) {
	return discover.NewDailyQuota(s.quotas, limit)
}
