package models

// Cart представляет корзину пользователя (одна на пользователя, создаётся лениво)
type Cart struct {
	ID     int64       `json:"id"`
	UserID int64       `json:"user_id"`
	Items  []*CartItem `json:"items"`
}

// CartItem представляет позицию корзины; уникальна в рамках (корзина, товар)
type CartItem struct {
	ID        int64    `json:"id"`
	CartID    int64    `json:"cart_id"`
	ProductID int64    `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty"` // заполняется через JOIN с таблицей products
}
