package model

import "time"

// Room is a treatment room whose occupancy is checked for conflicts.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – human readable label ("Lotus Room").
//  Capacity  – how many guests the room holds.
//  IsActive  – whether the room is currently bookable.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Room struct {
	ID        uint64
	Name      string
	Capacity  uint32
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
