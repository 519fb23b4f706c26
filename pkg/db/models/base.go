package models

import "github.com/google/uuid"

// ensureID assigns a fresh identifier when the caller left it zero.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All returns every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&Address{},
		&EmailCode{},
		&Category{},
		&Product{},
		&ProductVariant{},
		&Event{},
		&ProductEvent{},
		&Cart{},
		&CartItem{},
	}
}
