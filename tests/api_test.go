package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const baseURL = "http://localhost:8080"

// envelope — общий конверт ответа API
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type tokenData struct {
	Token string `json:"token"`
}

type productData struct {
	ID int64 `json:"id"`
}

type orderData struct {
	ID     int64  `json:"id"`
	Total  int64  `json:"total"`
	Status string `json:"status"`
}

// uniqueEmail даёт свежий email на каждый прогон, чтобы регистрация не падала на дубликате
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@test.com", prefix, time.Now().UnixNano())
}

func postJSON(t *testing.T, path, token, body string) (*http.Response, envelope) {
	req, err := http.NewRequest("POST", baseURL+path, bytes.NewBufferString(body))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func registerAndLoginUser(t *testing.T) string {
	email := uniqueEmail("buyer")
	body := fmt.Sprintf(`{"username": "buyer-%d", "email": "%s", "password": "testpass123"}`, time.Now().UnixNano(), email)
	resp, _ := postJSON(t, "/api/users/register", "", body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "user registration should succeed")

	resp, env := postJSON(t, "/api/users/login", "", fmt.Sprintf(`{"email": "%s", "password": "testpass123"}`, email))
	assert.Equal(t, http.StatusOK, resp.StatusCode, "login should succeed")

	var td tokenData
	assert.NoError(t, json.Unmarshal(env.Data, &td))
	assert.NotEmpty(t, td.Token)
	return td.Token
}

func registerAndLoginMerchant(t *testing.T) string {
	email := uniqueEmail("shop")
	body := fmt.Sprintf(`{"shopName": "Test Shop", "email": "%s", "address": "Main street 1", "password": "testpass123"}`, email)
	resp, _ := postJSON(t, "/api/merchants/register", "", body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "merchant registration should succeed")

	resp, env := postJSON(t, "/api/merchants/login", "", fmt.Sprintf(`{"email": "%s", "password": "testpass123"}`, email))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var td tokenData
	assert.NoError(t, json.Unmarshal(env.Data, &td))
	return td.Token
}

func addProduct(t *testing.T, merchantToken string, price int64, stock int) int64 {
	body := fmt.Sprintf(`{"name": "milk-%d", "description": "1L", "price": %d, "stock": %d}`, time.Now().UnixNano(), price, stock)
	resp, env := postJSON(t, "/api/products", merchantToken, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "merchant should be able to add a product")

	var pd productData
	assert.NoError(t, json.Unmarshal(env.Data, &pd))
	assert.NotZero(t, pd.ID)
	return pd.ID
}

// сценарий регистрации с некорректным телом
func TestRegisterInvalid(t *testing.T) {
	resp, _ := postJSON(t, "/api/users/register", "", `{"username": "", "email": "bad", "password": "short"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "expected 400 for invalid registration")
}

// сценарий с безуспешной аутентификацией
func TestLoginInvalid(t *testing.T) {
	resp, _ := postJSON(t, "/api/users/login", "", `{"email": "nobody@test.com", "password": "wrongpass1"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "expected 401 for unknown user")
}

// доступ к корзине без токена
func TestCartUnauthorized(t *testing.T) {
	req, err := http.NewRequest("GET", baseURL+"/api/cart", nil)
	assert.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// токен продавца не даёт доступ к корзине
func TestCartForbiddenForMerchant(t *testing.T) {
	merchantToken := registerAndLoginMerchant(t)

	req, err := http.NewRequest("GET", baseURL+"/api/cart", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+merchantToken)
	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// полный сценарий: продавец заводит товар, покупатель кладёт его в корзину и оформляет заказ
func TestCheckoutFlow(t *testing.T) {
	merchantToken := registerAndLoginMerchant(t)
	productID := addProduct(t, merchantToken, 10000, 5)

	userToken := registerAndLoginUser(t)

	resp, _ := postJSON(t, "/api/cart", userToken, fmt.Sprintf(`{"productId": %d, "quantity": 2}`, productID))
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "adding to cart should succeed")

	resp, env := postJSON(t, "/api/orders/checkout", userToken, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "checkout should succeed")
	assert.True(t, env.Success)

	var od orderData
	assert.NoError(t, json.Unmarshal(env.Data, &od))
	assert.Equal(t, int64(20000), od.Total, "total = price * quantity")
	assert.Equal(t, "PENDING", od.Status)

	// корзина опустошена заказом, повторный checkout должен вернуть 400
	resp, env = postJSON(t, "/api/orders/checkout", userToken, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "second checkout must fail on emptied cart")
	assert.Equal(t, "Your cart is empty.", env.Error)
}

// заказ больше остатка отклоняется без побочных эффектов
func TestCheckoutInsufficientStock(t *testing.T) {
	merchantToken := registerAndLoginMerchant(t)
	productID := addProduct(t, merchantToken, 5000, 1)

	userToken := registerAndLoginUser(t)

	resp, _ := postJSON(t, "/api/cart", userToken, fmt.Sprintf(`{"productId": %d, "quantity": 3}`, productID))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := postJSON(t, "/api/orders/checkout", userToken, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "expected 400 when quantity exceeds stock")
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)

	// история заказов осталась пустой
	req, err := http.NewRequest("GET", baseURL+"/api/orders", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+userToken)
	ordersResp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer ordersResp.Body.Close()
	assert.Equal(t, http.StatusOK, ordersResp.StatusCode)

	var listEnv envelope
	assert.NoError(t, json.NewDecoder(ordersResp.Body).Decode(&listEnv))
	var orders []orderData
	assert.NoError(t, json.Unmarshal(listEnv.Data, &orders))
	assert.Empty(t, orders, "failed checkout must not create an order")
}

// оформление заказа с пустой корзиной
func TestCheckoutEmptyCart(t *testing.T) {
	userToken := registerAndLoginUser(t)

	resp, env := postJSON(t, "/api/orders/checkout", userToken, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Your cart is empty.", env.Error)
}
