package models

import "time"

// Merchant представляет продавца, владеющего товарами
type Merchant struct {
	ID        int64     `json:"id"`
	ShopName  string    `json:"shop_name"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	Address   string    `json:"address,omitempty"`
	Role      string    `json:"role"` // всегда "merchant"
	CreatedAt time.Time `json:"created_at"`
}
