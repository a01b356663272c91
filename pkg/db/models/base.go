package models

import "github.com/google/uuid"

// ensureID assigns a random UUID before insert when the caller left it empty.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Bakery{},
		&Address{},
		&State{},
		&ProductVariant{},
		&Inventory{},
		&Coupon{},
		&UserCoupon{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&AdminConfiguration{},
		&ZipCodeConfig{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
