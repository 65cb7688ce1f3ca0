package models

import "time"

// Статусы заказа. Оформление всегда создаёт заказ в статусе PENDING,
// дальнейшие переходы выполняются процессами исполнения заказа.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Order представляет заказ, созданный при оформлении корзины.
// После создания заказ и его позиции неизменяемы, кроме поля Status.
type Order struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"user_id"`
	Total     int64        `json:"total"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	Items     []*OrderItem `json:"items"`
}

// OrderItem представляет позицию заказа
type OrderItem struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"order_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"` // имя товара; заполняется через JOIN с таблицей products
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"` // цена за единицу на момент покупки, снимок
}
