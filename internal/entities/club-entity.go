package entities

import (
	"club-system/pkg/types"
)

// Типы клубов. Свободная строка в БД, но API принимает только эти.
const (
	ClubTypeBook  = "book"
	ClubTypeMovie = "movie"
	ClubTypeGame  = "game"
)

type Club struct {
	ID          uint64  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
	ClubType    string  `json:"club_type" db:"club_type"`
	OwnerID     uint64  `json:"owner_id" db:"owner_id"`

	types.BaseEntity
}
