package catalog

import (
	"context"
	"errors"
	"io/fs"
	"path"

	"github.com/sirupsen/logrus"

	"shipyard/internal/observability"
	"shipyard/pkg/domain"
)

// Source reads raw catalog files. A nil Source means no host storage is
// available and only bundled data is used.
type Source interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
}

// OverrideName returns the file name an override for category is read from.
func OverrideName(prefix string, category domain.Category) string {
	return path.Join(prefix, string(category)+".yaml")
}

// Open layers per-category override files from src over the bundled catalog.
// A missing, unreadable or malformed override keeps the bundled category, so
// Open never fails.
func Open(ctx context.Context, src Source, prefix string, logger logrus.FieldLogger) *Catalog {
	cat := Bundled()
	if src == nil {
		return cat
	}
	logger = observability.OrDiscard(logger)
	for _, category := range domain.CatalogCategories {
		name := OverrideName(prefix, category)
		log := logger.WithFields(logrus.Fields{"category": category, "file": name})
		data, err := src.ReadFile(ctx, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			log.WithError(err).Warn("catalog override unreadable, using bundled data")
			continue
		}
		defs, err := ParseCategory(category, data)
		if err != nil {
			log.WithError(err).Warn("catalog override malformed, using bundled data")
			continue
		}
		log.WithField("entries", len(defs)).Info("catalog override applied")
		cat = cat.withCategory(category, defs)
	}
	return cat
}
