package model

import "time"

// ReservationLock is an advisory lock document that serializes admission per
// locker. Insertion with a duplicate _id means another request holds the
// locker; the TTL index on expires_at reclaims locks from crashed holders.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
