package model

import "time"

const (
	LockerAvailable   = "available"
	LockerReserved    = "reserved"
	LockerMaintenance = "maintenance"

	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

// Locker is a physical locker unit. Status is "reserved" exactly while one
// active reservation references the locker; "maintenance" is an operator-only
// state the reservation subsystem never sets.
type Locker struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Number    string    `json:"number" bson:"number" validate:"required,min=1,max=20"`
	Size      string    `json:"size" bson:"size" validate:"required,oneof=small medium large"`
	Price     float64   `json:"price" bson:"price" validate:"gte=0"`
	Status    string    `json:"status" bson:"status" validate:"omitempty,oneof=available reserved maintenance"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at"`
}

type LockerUpdate struct {
	Number *string  `json:"number,omitempty" validate:"omitempty,min=1,max=20"`
	Size   *string  `json:"size,omitempty" validate:"omitempty,oneof=small medium large"`
	Price  *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Status *string  `json:"status,omitempty" validate:"omitempty,oneof=available reserved maintenance"`
}
