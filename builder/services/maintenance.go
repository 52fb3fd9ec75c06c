package services

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/cache"
	"github.com/Kush-Singh-26/aksara/builder/config"
	"github.com/Kush-Singh-26/aksara/builder/dictionary"
	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/stemmer"
)

// StemNamespaces returns the stem cache namespace of every variant under
// the current rules and word lists. Stems outside them are garbage.
func StemNamespaces(fs afero.Fs, cfg *config.Config) ([]string, error) {
	out := make([]string, 0, len(models.Variants))
	for _, v := range models.Variants {
		rs, err := stemmer.LoadRules(v)
		if err != nil {
			return nil, err
		}
		var dict *dictionary.Dictionary
		if cfg.DictionaryDir != "" {
			dict, err = dictionary.LoadVariant(fs, cfg.DictionaryDir, v)
		} else {
			dict, err = dictionary.Embedded(v)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s word list: %w", v, err)
		}
		out = append(out, stemmer.New(rs, dict, stemmer.Options{}).Fingerprint())
	}
	return out, nil
}

// MaybeGC collects garbage once cfg.MinRunsBetweenGC runs have passed since
// the last collection. It returns nil when it did not run. It must not
// run while stemming is in progress.
func (s *cacheServiceImpl) MaybeGC(cfg cache.GCConfig) (*cache.GCResult, error) {
	ok, reason := s.manager.ShouldRunGC(cfg)
	if !ok {
		s.logger.Debug("Skipping cache GC", "reason", reason)
		return nil, nil
	}
	// Queued stems must be committed before the scan sees them.
	if err := s.stems.Close(); err != nil {
		return nil, err
	}
	s.stems = cache.NewStemAdapter(s.manager, s.logger, 0)

	res, err := s.manager.RunGC(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to collect garbage: %w", err)
	}
	s.logger.Info("Cache GC", "reason", reason, "stems", res.DeletedStems, "blobs", res.DeletedBlobs, "duration", res.Duration)
	return res, nil
}
