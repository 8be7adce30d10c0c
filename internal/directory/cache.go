package directory

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"coopdash/internal/config"
	"coopdash/internal/table"
)

type cacheEntry struct {
	modTime time.Time
	size    int64
	index   *Index
}

// Cache memoizes directory reads per path until the file changes on disk.
type Cache struct {
	mu      sync.Mutex
	loader  *table.Loader
	rules   *config.Rules
	entries map[string]cacheEntry
}

func NewCache(rules *config.Rules) *Cache {
	return &Cache{
		loader:  table.NewLoader(rules.Header),
		rules:   rules,
		entries: map[string]cacheEntry{},
	}
}

// Vendors returns the vendor contact index at path. An absent file yields an empty index.
func (c *Cache) Vendors(path string) (*Index, error) {
	return c.get(path, table.KindVendorContact)
}

func (c *Cache) Members(path string) (*Index, error) {
	return c.get(path, table.KindMember)
}

func (c *Cache) get(path string, kind table.Kind) (*Index, error) {
	if path == "" {
		return BuildIndex(nil), nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Debug("directory file absent", zap.String("path", path))
		return BuildIndex(nil), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "directory: stat %s", path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cacheKey := string(kind) + ":" + path
	if e, ok := c.entries[cacheKey]; ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		return e.index, nil
	}

	t, err := c.loader.LoadFile(path, kind)
	if err != nil {
		return nil, err
	}
	var idx *Index
	if kind == table.KindMember {
		idx = BuildIndex(MemberContacts(t, c.rules.Members))
	} else {
		idx = BuildIndex(VendorContacts(t, c.rules.Directory))
	}
	c.entries[cacheKey] = cacheEntry{modTime: info.ModTime(), size: info.Size(), index: idx}
	zap.L().Info("directory loaded", zap.String("path", path), zap.String("kind", string(kind)), zap.Int("contacts", idx.Len()))
	return idx, nil
}
