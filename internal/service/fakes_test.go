package service

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/cache"
	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/repository"
	"github.com/LeoQ9904/back-ecommerce/internal/search"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type mockCartRepository struct {
	m     sync.Mutex
	carts map[string]*domain.Cart
	// conflicts makes the next N versioned updates fail as if another writer won
	conflicts int
	// insertRace makes the next Insert fail with a duplicate key after storing raceCart
	insertRace *domain.Cart
	err        error
	updates    int
}

var _ repository.CartRepository = (*mockCartRepository)(nil)

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]*domain.Cart{}}
}

func clone(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = slices.Clone(c.Items)
	return &cp
}

func (m *mockCartRepository) Insert(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.insertRace != nil {
		m.carts[m.insertRace.UserID] = clone(m.insertRace)
		m.insertRace = nil
		return domain.Errorf(domain.ErrDuplicateKey, "duplicate")
	}
	if _, ok := m.carts[cart.UserID]; ok {
		return domain.Errorf(domain.ErrDuplicateKey, "duplicate")
	}
	cart.ID = primitive.NewObjectID()
	cart.Version = 1
	m.carts[cart.UserID] = clone(cart)
	return nil
}

func (m *mockCartRepository) GetByUserID(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "cart not found")
	}
	return clone(c), nil
}

func (m *mockCartRepository) GetByID(_ context.Context, id string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, c := range m.carts {
		if c.ID.Hex() == id {
			return clone(c), nil
		}
	}
	return nil, domain.Errorf(domain.ErrNotFound, "cart not found")
}

func (m *mockCartRepository) FindAll(context.Context) ([]domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	out := []domain.Cart{}
	for _, c := range m.carts {
		out = append(out, *clone(c))
	}
	return out, nil
}

func (m *mockCartRepository) UpdateWithVersion(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.updates++
	stored, ok := m.carts[cart.UserID]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "cart not found")
	}
	if m.conflicts > 0 {
		m.conflicts--
		stored.Version++
		return domain.Errorf(domain.ErrConflict, "conflict")
	}
	if stored.Version != cart.Version {
		return domain.Errorf(domain.ErrConflict, "conflict")
	}
	cart.Version++
	m.carts[cart.UserID] = clone(cart)
	return nil
}

func (m *mockCartRepository) DeleteByUserID(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.carts[userID]; !ok {
		return domain.Errorf(domain.ErrNotFound, "cart not found")
	}
	delete(m.carts, userID)
	return nil
}

func (m *mockCartRepository) DeleteByID(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	for userID, c := range m.carts {
		if c.ID.Hex() == id {
			delete(m.carts, userID)
			return nil
		}
	}
	return domain.Errorf(domain.ErrNotFound, "cart not found")
}

type mockCache struct {
	m       sync.RWMutex
	carts   map[string]*domain.Cart
	err     error
	deletes int
}

var _ cache.CartCache = (*mockCache)(nil)

func newMockCache() *mockCache {
	return &mockCache{carts: map[string]*domain.Cart{}}
}

func (m *mockCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c, nil
}

func (m *mockCache) Set(_ context.Context, userID string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.carts[userID] = cart
	return m.err
}

func (m *mockCache) Delete(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.deletes++
	delete(m.carts, userID)
	return m.err
}

func (m *mockCache) getCart(userID string) *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.carts[userID]
}

func (m *mockCache) deleteCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.deletes
}

// mockProductRepository evaluates search predicates in memory.
type mockProductRepository struct {
	repository.ProductRepository
	m        sync.Mutex
	products []domain.Product
	queried  [][]string
}

func (m *mockProductRepository) SearchInCategories(_ context.Context, categories []string, pred search.Predicate, _, _ int) ([]domain.Product, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.queried = append(m.queried, categories)
	var out []domain.Product
	for _, p := range m.products {
		if !slices.Contains(categories, p.Category) {
			continue
		}
		if !pred.Empty() && !pred.Matches(p.Name) && !pred.Matches(p.Category) {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (m *mockProductRepository) Search(_ context.Context, pred search.Predicate, _, _ int) ([]domain.Product, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []domain.Product
	for _, p := range m.products {
		if pred.Matches(p.Name) || pred.Matches(p.Category) || pred.Matches(p.Description) {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockProductRepository) AdjustStock(_ context.Context, id string, quantity int, op domain.StockOperation) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for i := range m.products {
		if m.products[i].ID.Hex() != id {
			continue
		}
		next, err := domain.ProjectStock(m.products[i].Stock, quantity, op)
		if err != nil {
			return nil, err
		}
		m.products[i].Stock = next
		p := m.products[i]
		return &p, nil
	}
	return nil, domain.Errorf(domain.ErrNotFound, "product not found")
}

type mockCategoryRepository struct {
	m          sync.Mutex
	categories []domain.Category
}

func (m *mockCategoryRepository) add(name string, parent *domain.Category) domain.Category {
	m.m.Lock()
	defer m.m.Unlock()
	c := domain.Category{ID: primitive.NewObjectID(), Name: name, IsActive: true}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	m.categories = append(m.categories, c)
	return c
}

func (m *mockCategoryRepository) Create(_ context.Context, c *domain.Category) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, existing := range m.categories {
		if existing.Name == c.Name {
			return domain.Errorf(domain.ErrDuplicateKey, "duplicate")
		}
	}
	c.ID = primitive.NewObjectID()
	m.categories = append(m.categories, *c)
	return nil
}

func (m *mockCategoryRepository) FindAll(context.Context) ([]domain.Category, error) {
	m.m.Lock()
	defer m.m.Unlock()
	return slices.Clone(m.categories), nil
}

func (m *mockCategoryRepository) FindByID(_ context.Context, id string) (*domain.Category, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, c := range m.categories {
		if c.ID.Hex() == id {
			return &c, nil
		}
	}
	return nil, domain.Errorf(domain.ErrNotFound, "category not found")
}

func (m *mockCategoryRepository) FindByName(_ context.Context, name string) (*domain.Category, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, c := range m.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, domain.Errorf(domain.ErrNotFound, "category not found")
}

func (m *mockCategoryRepository) FindByParentID(_ context.Context, parentID primitive.ObjectID) ([]domain.Category, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []domain.Category
	for _, c := range m.categories {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCategoryRepository) UpsertByName(ctx context.Context, c *domain.Category) (*domain.Category, bool, error) {
	if existing, err := m.FindByName(ctx, c.Name); err == nil {
		return existing, false, nil
	}
	if err := m.Create(ctx, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

type mockCustomerRepository struct {
	m         sync.Mutex
	customers map[string]*domain.Customer
	// raceOnCreate stores a competing customer and fails the next Create
	raceOnCreate *domain.Customer
}

func newMockCustomerRepository() *mockCustomerRepository {
	return &mockCustomerRepository{customers: map[string]*domain.Customer{}}
}

func (m *mockCustomerRepository) Create(_ context.Context, c *domain.Customer) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.raceOnCreate != nil {
		m.customers[m.raceOnCreate.FirebaseUID] = m.raceOnCreate
		m.raceOnCreate = nil
		return domain.Errorf(domain.ErrDuplicateKey, "duplicate")
	}
	if _, ok := m.customers[c.FirebaseUID]; ok {
		return domain.Errorf(domain.ErrDuplicateKey, "duplicate")
	}
	c.ID = primitive.NewObjectID()
	cp := *c
	m.customers[c.FirebaseUID] = &cp
	return nil
}

func (m *mockCustomerRepository) FindByFirebaseUID(_ context.Context, uid string) (*domain.Customer, error) {
	m.m.Lock()
	defer m.m.Unlock()
	c, ok := m.customers[uid]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "customer not found")
	}
	cp := *c
	return &cp, nil
}

func (m *mockCustomerRepository) UpdateByFirebaseUID(_ context.Context, uid string, u domain.CustomerUpdate) (*domain.Customer, error) {
	m.m.Lock()
	defer m.m.Unlock()
	c, ok := m.customers[uid]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "customer not found")
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.DisplayName != nil {
		c.DisplayName = *u.DisplayName
	}
	if u.Addresses != nil {
		c.Addresses = slices.Clone(*u.Addresses)
	}
	cp := *c
	return &cp, nil
}

type mockNotificationRepository struct {
	repository.NotificationRepository
	m           sync.Mutex
	activeAt    time.Time
	archivedAt  time.Time
	archived    int64
	searchTerms []search.Predicate
}

func (m *mockNotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	n.ID = primitive.NewObjectID()
	return nil
}

func (m *mockNotificationRepository) FindActive(_ context.Context, now time.Time) ([]domain.Notification, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.activeAt = now
	return []domain.Notification{}, nil
}

func (m *mockNotificationRepository) ArchiveExpired(_ context.Context, now time.Time) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.archivedAt = now
	return m.archived, nil
}

func (m *mockNotificationRepository) Search(_ context.Context, pred search.Predicate) ([]domain.Notification, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.searchTerms = append(m.searchTerms, pred)
	return []domain.Notification{}, nil
}
