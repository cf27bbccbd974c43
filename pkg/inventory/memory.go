package inventory

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/agentstation/stockguard/internal/utils/ptr"
	"github.com/agentstation/stockguard/pkg/errors"
)

// MemoryStore is an in-memory Store with auto-incrementing ids.
type MemoryStore struct {
	mu             sync.RWMutex
	products       map[int64]Product
	categories     map[int64]Category
	nextProductID  int64
	nextCategoryID int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:       make(map[int64]Product),
		categories:     make(map[int64]Category),
		nextProductID:  1,
		nextCategoryID: 1,
	}
}

// CreateProduct implements Store.
func (m *MemoryStore) CreateProduct(in ProductCreate) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkCategory(in.CategoryID); err != nil {
		return Product{}, err
	}

	p := in.build()
	p.ID = m.nextProductID
	m.nextProductID++
	m.products[p.ID] = p

	return m.hydrate(p), nil
}

// GetProduct implements Store.
func (m *MemoryStore) GetProduct(id int64) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return Product{}, productNotFound(id)
	}
	return m.hydrate(p), nil
}

// ListProducts implements Store. Results are ordered by id.
func (m *MemoryStore) ListProducts(f Filter) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		all = append(all, m.hydrate(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return f.Apply(all), nil
}

// UpdateProduct implements Store.
func (m *MemoryStore) UpdateProduct(id int64, in ProductUpdate) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return Product{}, productNotFound(id)
	}
	if err := m.checkCategory(in.CategoryID); err != nil {
		return Product{}, err
	}

	in.apply(&p)
	m.products[id] = p

	return m.hydrate(p), nil
}

// DeleteProduct implements Store and returns the removed product.
func (m *MemoryStore) DeleteProduct(id int64) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return Product{}, productNotFound(id)
	}
	delete(m.products, id)

	return m.hydrate(p), nil
}

// CreateCategory implements Store. Names are unique, case-insensitively.
func (m *MemoryStore) CreateCategory(in CategoryCreate) (Category, error) {
	if err := in.Validate(); err != nil {
		return Category{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name := strings.TrimSpace(in.Name)
	if err := m.checkCategoryName(name, 0); err != nil {
		return Category{}, err
	}

	c := Category{
		ID:          m.nextCategoryID,
		Name:        name,
		Description: ptr.Clone(in.Description),
	}
	m.nextCategoryID++
	m.categories[c.ID] = c

	return c.clone(), nil
}

// GetCategory implements Store.
func (m *MemoryStore) GetCategory(id int64) (Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return Category{}, categoryNotFound(id)
	}
	return c.clone(), nil
}

// ListCategories implements Store. Results are ordered by id.
func (m *MemoryStore) ListCategories() ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]Category, 0, len(m.categories))
	for _, c := range m.categories {
		all = append(all, c.clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return all, nil
}

// UpdateCategory implements Store.
func (m *MemoryStore) UpdateCategory(id int64, in CategoryUpdate) (Category, error) {
	if err := in.Validate(); err != nil {
		return Category{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[id]
	if !ok {
		return Category{}, categoryNotFound(id)
	}
	if in.Name != nil {
		if err := m.checkCategoryName(strings.TrimSpace(*in.Name), id); err != nil {
			return Category{}, err
		}
	}

	in.apply(&c)
	m.categories[id] = c

	return c.clone(), nil
}

// DeleteCategory implements Store. Products in the category are detached.
func (m *MemoryStore) DeleteCategory(id int64) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[id]
	if !ok {
		return Category{}, categoryNotFound(id)
	}
	delete(m.categories, id)

	for pid, p := range m.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			m.products[pid] = p
		}
	}

	return c, nil
}

// snapshot returns the full store state. Callers hold at least a read lock.
func (m *MemoryStore) snapshot() fileSnapshot {
	snap := fileSnapshot{
		NextProductID:  m.nextProductID,
		NextCategoryID: m.nextCategoryID,
		Products:       make([]Product, 0, len(m.products)),
		Categories:     make([]Category, 0, len(m.categories)),
	}
	for _, p := range m.products {
		p.Category = nil
		snap.Products = append(snap.Products, p)
	}
	for _, c := range m.categories {
		snap.Categories = append(snap.Categories, c)
	}
	sort.Slice(snap.Products, func(i, j int) bool { return snap.Products[i].ID < snap.Products[j].ID })
	sort.Slice(snap.Categories, func(i, j int) bool { return snap.Categories[i].ID < snap.Categories[j].ID })
	return snap
}

// restore replaces the store state with snap.
func (m *MemoryStore) restore(snap fileSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products = make(map[int64]Product, len(snap.Products))
	m.categories = make(map[int64]Category, len(snap.Categories))
	m.nextProductID = max(snap.NextProductID, 1)
	m.nextCategoryID = max(snap.NextCategoryID, 1)

	for _, c := range snap.Categories {
		m.categories[c.ID] = c
		m.nextCategoryID = max(m.nextCategoryID, c.ID+1)
	}
	for _, p := range snap.Products {
		p.Category = nil
		m.products[p.ID] = p
		m.nextProductID = max(m.nextProductID, p.ID+1)
	}
}

// hydrate attaches the product's category. Callers hold at least a read lock.
func (m *MemoryStore) hydrate(p Product) Product {
	p.Description = ptr.Clone(p.Description)
	p.CategoryID = ptr.Clone(p.CategoryID)
	p.Category = nil
	if p.CategoryID != nil {
		if c, ok := m.categories[*p.CategoryID]; ok {
			c = c.clone()
			p.Category = &c
		}
	}
	return p
}

func (m *MemoryStore) checkCategory(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := m.categories[*id]; !ok {
		return errors.NewValidationError("category_id", *id, "category does not exist")
	}
	return nil
}

func (m *MemoryStore) checkCategoryName(name string, self int64) error {
	for id, c := range m.categories {
		if id != self && strings.EqualFold(c.Name, name) {
			return errors.NewAlreadyExistsError("category", "name", name)
		}
	}
	return nil
}

func productNotFound(id int64) error {
	return errors.NewNotFoundError("product", strconv.FormatInt(id, 10))
}

func categoryNotFound(id int64) error {
	return errors.NewNotFoundError("category", strconv.FormatInt(id, 10))
}
