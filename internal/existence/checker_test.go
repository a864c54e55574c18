package existence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type fakeStore struct {
	values  map[string]string
	ttls    map[string]time.Duration
	gets    int
	failGet bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.gets++
	if f.failGet {
		return "", errors.New("connection refused")
	}
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeStore) ExistsKey(kind string, id int64) string {
	return fmt.Sprintf("sf:exists:%s:%d", kind, id)
}

func TestUserExistsReadsThroughWithoutCache(t *testing.T) {
	conn := dbtest.Open(t)
	user := dbtest.CreateUser(t, conn)
	checker := NewChecker(conn, nil, 0, nil)

	ok, err := checker.UserExists(context.Background(), user.ID)
	if err != nil || !ok {
		t.Fatalf("expected user to exist, got %v %v", ok, err)
	}
	ok, err = checker.UserExists(context.Background(), user.ID+100)
	if err != nil || ok {
		t.Fatalf("expected unknown user to be missing, got %v %v", ok, err)
	}
	if ok, _ := checker.UserExists(context.Background(), 0); ok {
		t.Fatal("expected non-positive id to be missing")
	}
}

func TestProductExistsCachesPositiveAnswers(t *testing.T) {
	conn := dbtest.Open(t)
	product := models.Product{CategoryID: enums.ProductCategoryLaptop.Code(), Price: decimal.NewFromInt(10), Quantity: 1}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	store := newFakeStore()
	checker := NewChecker(conn, store, time.Minute, nil)
	ctx := context.Background()

	if ok, err := checker.ProductExists(ctx, product.ID); err != nil || !ok {
		t.Fatalf("expected product to exist, got %v %v", ok, err)
	}
	key := store.ExistsKey("product", product.ID)
	if store.values[key] != "1" || store.ttls[key] != time.Minute {
		t.Fatalf("expected cached answer with ttl, got %q %v", store.values[key], store.ttls[key])
	}

	// a cached answer is served even after the row goes away until it is forgotten
	if err := conn.Delete(&models.Product{}, product.ID).Error; err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if ok, _ := checker.ProductExists(ctx, product.ID); !ok {
		t.Fatal("expected cached positive answer")
	}
	checker.ForgetProduct(ctx, product.ID)
	if ok, _ := checker.ProductExists(ctx, product.ID); ok {
		t.Fatal("expected forgotten product to be missing")
	}
	if _, cached := store.values[key]; cached {
		t.Fatal("negative answers must not be cached")
	}
}

func TestCacheFailureFallsBackToDatabase(t *testing.T) {
	conn := dbtest.Open(t)
	user := dbtest.CreateUser(t, conn)
	store := newFakeStore()
	store.failGet = true
	checker := NewChecker(conn, store, time.Minute, nil)

	ok, err := checker.UserExists(context.Background(), user.ID)
	if err != nil || !ok {
		t.Fatalf("expected fallback read to find user, got %v %v", ok, err)
	}
	if store.gets != 1 {
		t.Fatalf("expected one cache read, got %d", store.gets)
	}
}
