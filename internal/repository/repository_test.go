package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db))
	// second run is a no-op
	require.NoError(t, RunMigrations(db))

	return db
}

func seedProduct(t *testing.T, repo ProductRepository, p domain.Product) *domain.Product {
	t.Helper()
	p.IsActive = true
	require.NoError(t, repo.Create(context.Background(), &p))
	return &p
}

func TestCartRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()

	t.Run("get missing cart", func(t *testing.T) {
		cart, err := repo.GetByUserID(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, cart)
	})

	t.Run("insert and duplicate", func(t *testing.T) {
		cart := domain.NewCart("u1", domain.CartProduct{Name: "Apple", Price: 2.5}, 2)
		require.NoError(t, repo.Insert(ctx, cart))
		assert.Equal(t, int64(1), cart.Version)
		assert.False(t, cart.ID.IsZero())

		err := repo.Insert(ctx, domain.NewCart("u1", domain.CartProduct{Name: "Pear", Price: 1}, 1))
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)

		stored, err := repo.GetByID(ctx, cart.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, "u1", stored.UserID)
		assert.Equal(t, 5.0, stored.TotalPrice)
	})

	t.Run("versioned update", func(t *testing.T) {
		first, err := repo.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		second, err := repo.GetByUserID(ctx, "u1")
		require.NoError(t, err)

		first.AddProduct(domain.CartProduct{Name: "Milk", Price: 1.2}, 1)
		require.NoError(t, repo.UpdateWithVersion(ctx, first))
		assert.Equal(t, int64(2), first.Version)

		second.AddProduct(domain.CartProduct{Name: "Bread", Price: 3}, 1)
		err = repo.UpdateWithVersion(ctx, second)
		assert.ErrorIs(t, err, domain.ErrConflict)

		stored, err := repo.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, stored.Items, 2)
		assert.Equal(t, int64(2), stored.Version)
	})

	t.Run("update deleted cart", func(t *testing.T) {
		cart := domain.NewCart("u2", domain.CartProduct{Name: "Apple", Price: 1}, 1)
		require.NoError(t, repo.Insert(ctx, cart))
		require.NoError(t, repo.DeleteByUserID(ctx, "u2"))

		err := repo.UpdateWithVersion(ctx, cart)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteByUserID(ctx, "u2"), domain.ErrNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestProductRepository_AdjustStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, repo, domain.Product{Name: "Rice", Price: 2, Stock: 5, Category: "Granos y Cereales"})
	id := p.ID.Hex()

	got, err := repo.AdjustStock(ctx, id, 3, domain.StockAdd)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock)

	_, err = repo.AdjustStock(ctx, id, 9, domain.StockSubtract)
	assert.ErrorIs(t, err, domain.ErrInvalidStock)

	got, err = repo.AdjustStock(ctx, id, -8, domain.StockSubtract)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	_, err = repo.AdjustStock(ctx, id, -1, domain.StockSet)
	assert.ErrorIs(t, err, domain.ErrInvalidStock)

	got, err = repo.AdjustStock(ctx, id, 4, domain.StockSet)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)

	_, err = repo.AdjustStock(ctx, "000000000000000000000000", 1, domain.StockAdd)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductRepository_ConcurrentSubtractNeverOversells(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, repo, domain.Product{Name: "Eggs", Price: 3, Stock: 10})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.AdjustStock(ctx, p.ID.Hex(), 1, domain.StockSubtract); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	got, err := repo.FindByID(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestProductRepository_Queries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	rating := 4.5
	seedProduct(t, repo, domain.Product{Name: "Limón", Price: 1, Stock: 3, Category: "Cítricos", Brand: "Finca", SKU: "LIM-1"})
	seedProduct(t, repo, domain.Product{Name: "Naranja", Price: 2, Stock: 0, Category: "Cítricos"})
	seedProduct(t, repo, domain.Product{Name: "Lechuga", Price: 1.5, Stock: 40, Category: "De hoja", Rating: &rating})
	hidden := seedProduct(t, repo, domain.Product{Name: "Hidden", Price: 9, Stock: 1, Category: "Cítricos"})
	require.NoError(t, repo.SoftDelete(ctx, hidden.ID.Hex()))

	t.Run("filters", func(t *testing.T) {
		products, total, err := repo.FindAll(ctx, domain.ProductFilter{Category: "cítricos", InStock: true}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, products, 1)
		assert.Equal(t, "Limón", products[0].Name)
	})

	t.Run("soft deleted product is hidden", func(t *testing.T) {
		_, err := repo.FindByID(ctx, hidden.ID.Hex())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("search is accent tolerant", func(t *testing.T) {
		products, total, err := repo.Search(ctx, search.BuildPredicate("limon"), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Limón", products[0].Name)
	})

	t.Run("search in categories", func(t *testing.T) {
		products, total, err := repo.SearchInCategories(ctx, []string{"Cítricos", "De hoja"}, search.Predicate{}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, products, 3)
	})

	t.Run("sku lookup and duplicate", func(t *testing.T) {
		got, err := repo.FindBySKU(ctx, "LIM-1")
		require.NoError(t, err)
		assert.Equal(t, "Limón", got.Name)

		dup := domain.Product{Name: "Otro", SKU: "LIM-1", IsActive: true}
		assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrDuplicateKey)
	})

	t.Run("stock listings", func(t *testing.T) {
		low, err := repo.FindLowStock(ctx, domain.LowStockThreshold)
		require.NoError(t, err)
		require.Len(t, low, 1)
		assert.Equal(t, "Limón", low[0].Name)

		out, err := repo.FindOutOfStock(ctx)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Naranja", out[0].Name)

		top, err := repo.FindTopRated(ctx, 5)
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, "Lechuga", top[0].Name)
	})

	t.Run("statistics", func(t *testing.T) {
		stats, err := repo.Statistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalProducts)
		assert.Equal(t, int64(43), stats.TotalStock)
		assert.InDelta(t, 63.0, stats.TotalValue, 0.001)
		assert.Equal(t, 2, stats.Categories)
		assert.Equal(t, []string{"Finca"}, stats.BrandList)
		assert.Equal(t, int64(1), stats.LowStockProducts)
		assert.Equal(t, int64(1), stats.OutOfStockProducts)
	})

	t.Run("upsert by sku is idempotent", func(t *testing.T) {
		inserted, err := repo.UpsertBySKU(ctx, &domain.Product{Name: "Limón verde", SKU: "LIM-1", Price: 100})
		require.NoError(t, err)
		assert.False(t, inserted)

		stored, err := repo.FindBySKU(ctx, "LIM-1")
		require.NoError(t, err)
		assert.Equal(t, "Limón", stored.Name)

		inserted, err = repo.UpsertBySKU(ctx, &domain.Product{Name: "Kale", SKU: "KAL-1", Price: 3, IsActive: true})
		require.NoError(t, err)
		assert.True(t, inserted)

		_, err = repo.UpsertBySKU(ctx, &domain.Product{Name: "Sin código"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestCategoryRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	parent, inserted, err := repo.UpsertByName(ctx, &domain.Category{Name: "Frutas y Verduras", IsActive: true})
	require.NoError(t, err)
	assert.True(t, inserted)

	again, inserted, err := repo.UpsertByName(ctx, &domain.Category{Name: "Frutas y Verduras"})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, parent.ID, again.ID)

	_, _, err = repo.UpsertByName(ctx, &domain.Category{Name: "Cítricos", ParentID: &parent.ID, IsActive: true})
	require.NoError(t, err)

	children, err := repo.FindByParentID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cítricos"}, domain.ChildNames(children))

	err = repo.Create(ctx, &domain.Category{Name: "Cítricos"})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	_, err = repo.FindByName(ctx, "Nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCustomerRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	c := &domain.Customer{FirebaseUID: "fb-1", Email: "a@b.co", IsActive: true}
	require.NoError(t, repo.Create(ctx, c))
	assert.Empty(t, c.Addresses)

	assert.ErrorIs(t, repo.Create(ctx, &domain.Customer{FirebaseUID: "fb-1"}), domain.ErrDuplicateKey)

	name := "Ana"
	updated, err := repo.UpdateByFirebaseUID(ctx, "fb-1", domain.CustomerUpdate{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.DisplayName)
	assert.Equal(t, "a@b.co", updated.Email)

	_, err = repo.UpdateByFirebaseUID(ctx, "fb-2", domain.CustomerUpdate{DisplayName: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotificationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	low := &domain.Notification{Title: "Low", Status: domain.NotificationActive, IsVisible: true, Priority: 1}
	high := &domain.Notification{Title: "High", Status: domain.NotificationActive, IsVisible: true, Priority: 9, ExpirationDate: &future}
	expired := &domain.Notification{Title: "Expired", Status: domain.NotificationActive, IsVisible: true, Priority: 5, ExpirationDate: &past}
	for _, n := range []*domain.Notification{low, high, expired} {
		require.NoError(t, repo.Create(ctx, n))
	}

	active, err := repo.FindActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "High", active[0].Title)
	assert.Equal(t, "Low", active[1].Title)

	toggled, err := repo.ToggleVisibility(ctx, low.ID.Hex())
	require.NoError(t, err)
	assert.False(t, toggled.IsVisible)
	toggled, err = repo.ToggleVisibility(ctx, low.ID.Hex())
	require.NoError(t, err)
	assert.True(t, toggled.IsVisible)

	archived, err := repo.ArchiveExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), archived)

	byStatus, err := repo.FindByStatus(ctx, domain.NotificationArchived)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Expired", byStatus[0].Title)

	found, err := repo.Search(ctx, search.BuildPredicate("hig"))
	require.NoError(t, err)
	require.Len(t, found, 1)

	inserted, err := repo.UpsertByTitle(ctx, &domain.Notification{Title: "High"})
	require.NoError(t, err)
	assert.False(t, inserted)

	require.NoError(t, repo.Delete(ctx, low.ID.Hex()))
	assert.ErrorIs(t, repo.Delete(ctx, low.ID.Hex()), domain.ErrNotFound)
}

// raceUpserts runs upsert from n goroutines at once and returns how many
// reported an insert.
func raceUpserts(t *testing.T, n int, upsert func() (bool, error)) int {
	t.Helper()
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
		errs     []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := upsert()
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			if ok {
				inserted++
			}
		}()
	}
	wg.Wait()
	require.Empty(t, errs)
	return inserted
}

func TestSeedUpsertsUnderConcurrentStartup(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	const instances = 8

	t.Run("notifications", func(t *testing.T) {
		repo := NewNotificationRepository(db)
		inserted := raceUpserts(t, instances, func() (bool, error) {
			return repo.UpsertByTitle(ctx, &domain.Notification{Title: "Envío gratis", Status: domain.NotificationActive})
		})
		assert.Equal(t, 1, inserted)

		count, err := db.Collection("notifications").CountDocuments(ctx, bson.M{"title": "Envío gratis"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		err = repo.Create(ctx, &domain.Notification{Title: "Envío gratis", Status: domain.NotificationActive})
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	t.Run("products", func(t *testing.T) {
		repo := NewProductRepository(db)
		inserted := raceUpserts(t, instances, func() (bool, error) {
			return repo.UpsertBySKU(ctx, &domain.Product{Name: "Mango", SKU: "MNG-1", Price: 2, IsActive: true})
		})
		assert.Equal(t, 1, inserted)

		count, err := db.Collection("products").CountDocuments(ctx, bson.M{"sku": "MNG-1"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("categories", func(t *testing.T) {
		repo := NewCategoryRepository(db)
		inserted := raceUpserts(t, instances, func() (bool, error) {
			stored, ok, err := repo.UpsertByName(ctx, &domain.Category{Name: "Lácteos", IsActive: true})
			if err == nil && stored.ID.IsZero() {
				t.Error("upsert returned a category without id")
			}
			return ok, err
		})
		assert.Equal(t, 1, inserted)

		count, err := db.Collection("categories").CountDocuments(ctx, bson.M{"name": "Lácteos"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}
