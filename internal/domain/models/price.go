package models

import "time"

// PriceTick is the latest price observation for a symbol. Only the newest tick is kept.
type PriceTick struct {
	Symbol     string
	Price      float64
	Volume24h  *float64
	ReceivedAt time.Time
}
