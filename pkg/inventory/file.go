package inventory

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/stockguard/pkg/constants"
	"github.com/agentstation/stockguard/pkg/errors"
)

// fileSnapshot is the on-disk layout of a FileStore.
type fileSnapshot struct {
	NextProductID  int64      `yaml:"next_product_id"`
	NextCategoryID int64      `yaml:"next_category_id"`
	Categories     []Category `yaml:"categories"`
	Products       []Product  `yaml:"products"`
}

// FileStore is a MemoryStore that writes a YAML snapshot to disk after every
// successful mutation.
type FileStore struct {
	mem  *MemoryStore
	path string

	// mu serializes mutations so snapshots reach disk in commit order.
	mu sync.Mutex
}

// OpenFileStore loads the store at path. A missing file yields an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{mem: NewMemoryStore(), path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return fs, nil
	case err != nil:
		return nil, errors.WrapIO("read", path, err)
	}

	var snap fileSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, errors.WrapResource("parse", "inventory", path, err)
	}
	fs.mem.restore(snap)

	return fs, nil
}

// Path returns the snapshot file location.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) save() error {
	f.mem.mu.RLock()
	snap := f.mem.snapshot()
	f.mem.mu.RUnlock()

	data, err := yaml.MarshalWithOptions(snap, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return errors.WrapResource("encode", "inventory", f.path, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.WrapIO("rename", f.path, err)
	}
	return nil
}

// CreateProduct implements Store.
func (f *FileStore) CreateProduct(in ProductCreate) (Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.mem.CreateProduct(in)
	if err != nil {
		return Product{}, err
	}
	return p, f.save()
}

// GetProduct implements Store.
func (f *FileStore) GetProduct(id int64) (Product, error) { return f.mem.GetProduct(id) }

// ListProducts implements Store.
func (f *FileStore) ListProducts(filter Filter) ([]Product, error) {
	return f.mem.ListProducts(filter)
}

// UpdateProduct implements Store.
func (f *FileStore) UpdateProduct(id int64, in ProductUpdate) (Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.mem.UpdateProduct(id, in)
	if err != nil {
		return Product{}, err
	}
	return p, f.save()
}

// DeleteProduct implements Store.
func (f *FileStore) DeleteProduct(id int64) (Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.mem.DeleteProduct(id)
	if err != nil {
		return Product{}, err
	}
	return p, f.save()
}

// CreateCategory implements Store.
func (f *FileStore) CreateCategory(in CategoryCreate) (Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.mem.CreateCategory(in)
	if err != nil {
		return Category{}, err
	}
	return c, f.save()
}

// GetCategory implements Store.
func (f *FileStore) GetCategory(id int64) (Category, error) { return f.mem.GetCategory(id) }

// ListCategories implements Store.
func (f *FileStore) ListCategories() ([]Category, error) { return f.mem.ListCategories() }

// UpdateCategory implements Store.
func (f *FileStore) UpdateCategory(id int64, in CategoryUpdate) (Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.mem.UpdateCategory(id, in)
	if err != nil {
		return Category{}, err
	}
	return c, f.save()
}

// DeleteCategory implements Store.
func (f *FileStore) DeleteCategory(id int64) (Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.mem.DeleteCategory(id)
	if err != nil {
		return Category{}, err
	}
	return c, f.save()
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)
