package storage_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/marketplace/internal/domain/models"
	"github.com/linemk/marketplace/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestGetProductByID_Success(t *testing.T) {
	// Создаем sqlmock для эмуляции базы данных.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()
	productID := int64(1)

	expired := time.Now().Add(24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "merchant_id", "name", "description", "price", "stock", "expired", "is_expired"}).
		AddRow(productID, 2, "milk", "fresh milk", 10000, 5, expired, false)

	query := regexp.QuoteMeta("SELECT id, merchant_id, name, description, price, stock, expired, is_expired FROM products WHERE id = $1")
	mock.ExpectQuery(query).WithArgs(productID).WillReturnRows(rows)

	product, err := repo.GetProductByID(ctx, productID)
	assert.NoError(t, err)
	assert.Equal(t, productID, product.ID)
	assert.Equal(t, "milk", product.Name)
	assert.Equal(t, int64(10000), product.Price)
	assert.Equal(t, 5, product.Stock)
	assert.False(t, product.IsExpired)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	// Эмулируем ситуацию, когда запрос возвращает 0 строк.
	rows := sqlmock.NewRows([]string{"id", "merchant_id", "name", "description", "price", "stock", "expired", "is_expired"})
	query := regexp.QuoteMeta("SELECT id, merchant_id, name, description, price, stock, expired, is_expired FROM products WHERE id = $1")
	mock.ExpectQuery(query).WithArgs(int64(99)).WillReturnRows(rows)

	product, err := repo.GetProductByID(ctx, 99)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrProductNotFound))
	assert.Nil(t, product)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	query := regexp.QuoteMeta("UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1")
	mock.ExpectExec(query).WithArgs(2, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.DecrementStock(ctx, tx, 1, 2)
	assert.NoError(t, err)

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_Insufficient(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	// 0 затронутых строк: условие stock >= qty не выполнилось,
	// остаток исчерпан конкурентным списанием
	query := regexp.QuoteMeta("UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1")
	mock.ExpectExec(query).WithArgs(5, int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DecrementStock(ctx, tx, 1, 5)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrInsufficientStock))

	mock.ExpectRollback()
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_NegativeQuantity(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	// отрицательное количество отклоняется до обращения к БД
	err = repo.DecrementStock(context.Background(), tx, 1, -1)
	assert.Error(t, err)

	mock.ExpectRollback()
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCartWithProductsTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	ctx := context.Background()
	userID := int64(7)

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	cartRows := sqlmock.NewRows([]string{"id", "user_id"}).AddRow(3, userID)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id FROM carts WHERE user_id = $1")).
		WithArgs(userID).WillReturnRows(cartRows)

	itemRows := sqlmock.NewRows([]string{
		"id", "cart_id", "product_id", "quantity",
		"p.id", "merchant_id", "name", "description", "price", "stock", "expired", "is_expired",
	}).AddRow(10, 3, 1, 2, 1, 2, "milk", "", 10000, 5, nil, false)
	mock.ExpectQuery("SELECT ci\\.id, ci\\.cart_id, ci\\.product_id, ci\\.quantity").
		WithArgs(int64(3)).WillReturnRows(itemRows)

	cart, err := repo.GetCartWithProductsTx(ctx, tx, userID)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), cart.ID)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "milk", cart.Items[0].Product.Name)
	assert.Nil(t, cart.Items[0].Product.Expired)

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCartWithProductsTx_NoCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id FROM carts WHERE user_id = $1")).
		WithArgs(int64(7)).WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

	cart, err := repo.GetCartWithProductsTx(context.Background(), tx, 7)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrCartNotFound))
	assert.Nil(t, cart)

	mock.ExpectRollback()
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearItemsTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE cart_id = $1")).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 2))

	assert.NoError(t, repo.ClearItemsTx(context.Background(), tx, 3))

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_MergesQuantity(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)

	// повторное добавление того же товара наращивает количество через upsert
	rows := sqlmock.NewRows([]string{"id", "quantity"}).AddRow(10, 3)
	mock.ExpectQuery("INSERT INTO cart_items").
		WithArgs(int64(3), int64(1), 2).WillReturnRows(rows)

	item, err := repo.AddItem(context.Background(), 3, 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), item.ID)
	assert.Equal(t, 3, item.Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	now := time.Now()
	orderRows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow(100, now)
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(int64(7), int64(20000), models.OrderStatusPending).WillReturnRows(orderRows)

	itemRows := sqlmock.NewRows([]string{"id"}).AddRow(200)
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(int64(100), int64(1), 2, int64(10000)).WillReturnRows(itemRows)

	items := []*models.OrderItem{{ProductID: 1, Quantity: 2, Price: 10000}}
	order, err := repo.CreateOrderTx(ctx, tx, 7, 20000, items)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int64(20000), order.Total)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, int64(100), order.Items[0].OrderID)

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByUserID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()
	userID := int64(7)

	now := time.Now()
	orderRows := sqlmock.NewRows([]string{"id", "user_id", "total", "status", "created_at"}).
		AddRow(100, userID, 20000, "PENDING", now)
	mock.ExpectQuery("SELECT id, user_id, total, status, created_at\\s+FROM orders").
		WithArgs(userID).WillReturnRows(orderRows)

	itemRows := sqlmock.NewRows([]string{"id", "order_id", "product_id", "name", "quantity", "price"}).
		AddRow(200, 100, 1, "milk", 2, 10000)
	mock.ExpectQuery("SELECT oi\\.id, oi\\.order_id, oi\\.product_id, p\\.name, oi\\.quantity, oi\\.price").
		WithArgs(int64(100)).WillReturnRows(itemRows)

	orders, err := repo.GetOrdersByUserID(ctx, userID)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, int64(20000), orders[0].Total)
	assert.Len(t, orders[0].Items, 1)
	assert.Equal(t, "milk", orders[0].Items[0].ProductName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, total, status, created_at FROM orders WHERE id = $1")).
		WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "status", "created_at"}))

	order, err := repo.GetOrderByID(context.Background(), 99)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrOrderNotFound))
	assert.Nil(t, order)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderHasMerchantProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(100), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	owns, err := repo.OrderHasMerchantProduct(context.Background(), 100, 2)
	assert.NoError(t, err)
	assert.True(t, owns)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("buyer", "buyer@example.com", []byte("hashed"), "user").
		WillReturnRows(rows)

	user, err := repo.CreateUser(ctx, &models.User{
		Username: "buyer",
		Email:    "buyer@example.com",
		PassHash: []byte("hashed"),
		Role:     "user",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	query := regexp.QuoteMeta("SELECT id, username, email, pass_hash, role, created_at, updated_at FROM users WHERE email = $1")
	mock.ExpectQuery(query).WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "pass_hash", "role", "created_at", "updated_at"}))

	user, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrUserNotFound))
	assert.Nil(t, user)

	assert.NoError(t, mock.ExpectationsWereMet())
}
