package services

import (
	"fmt"
	"log/slog"

	"github.com/Kush-Singh-26/aksara/builder/cache"
	"github.com/Kush-Singh-26/aksara/builder/config"
	"github.com/Kush-Singh-26/aksara/builder/models"
)

// cacheServiceImpl implements CacheService
type cacheServiceImpl struct {
	manager *cache.Manager
	stems   *cache.StemAdapter
	logger  *slog.Logger
}

func NewCacheService(manager *cache.Manager, logger *slog.Logger) CacheService {
	if logger == nil {
		logger = slog.Default()
	}
	return &cacheServiceImpl{
		manager: manager,
		stems:   cache.NewStemAdapter(manager, logger, 0),
		logger:  logger,
	}
}

// OpenCache opens the cache directory named by cfg and counts the run.
func OpenCache(cfg *config.Config, logger *slog.Logger) (CacheService, error) {
	manager, err := cache.Open(cfg.CacheDir, cfg.CacheDBTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if err := manager.IncrementRunCount(); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return NewCacheService(manager, logger), nil
}

func (s *cacheServiceImpl) GetStem(namespace, word string) (models.StemResult, bool, error) {
	return s.stems.GetStem(namespace, word)
}

func (s *cacheServiceImpl) PutStem(namespace, word string, r models.StemResult) error {
	return s.stems.PutStem(namespace, word, r)
}

func (s *cacheServiceImpl) GetDocument(key, sourceHash string) ([]byte, bool, error) {
	return s.manager.GetDocument(key, sourceHash)
}

func (s *cacheServiceImpl) PutDocument(key, sourceHash string, output []byte) error {
	return s.manager.PutDocument(key, sourceHash, output)
}

func (s *cacheServiceImpl) Stats() (*cache.CacheStats, error) {
	return s.manager.Stats()
}

func (s *cacheServiceImpl) IncrementRunCount() error {
	return s.manager.IncrementRunCount()
}

// Close flushes queued stem writes before closing the database.
func (s *cacheServiceImpl) Close() error {
	if err := s.stems.Close(); err != nil {
		s.logger.Warn("Failed to flush stem writes", "error", err)
	}
	return s.manager.Close()
}
