package models

import "time"

// Product представляет товар в каталоге
type Product struct {
	ID          int64      `json:"id"`
	MerchantID  int64      `json:"merchant_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Price       int64      `json:"price"` // цена в минимальных единицах валюты
	Stock       int        `json:"stock"`
	Expired     *time.Time `json:"expired,omitempty"`
	IsExpired   bool       `json:"is_expired"` // кэшированный флаг; при проверках приоритет у живого сравнения
}

// ExpiredAt сообщает, просрочен ли товар на момент now.
// Кэшированный флаг может только расширить отказ, но не разрешить просроченный товар:
// живое сравнение с датой Expired — авторитетная проверка.
func (p *Product) ExpiredAt(now time.Time) bool {
	if p.IsExpired {
		return true
	}
	return p.Expired != nil && !p.Expired.After(now)
}
