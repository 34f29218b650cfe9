package models

import (
	"time"
)

// Fuel types a story may be tagged with.
const (
	FuelCharcoal        = "charcoal"
	FuelLPG             = "LPG"
	FuelElectric        = "electric"
	FuelImprovedBiomass = "improved_biomass"
)

// FuelTypes lists every accepted fuel type.
var FuelTypes = []string{FuelCharcoal, FuelLPG, FuelElectric, FuelImprovedBiomass}

// CleanFuelTypes are the fuel types counted towards clean-fuel adoption.
var CleanFuelTypes = []string{FuelLPG, FuelElectric, FuelImprovedBiomass}

// IsFuelType reports whether s is one of FuelTypes.
func IsFuelType(s string) bool {
	for _, f := range FuelTypes {
		if s == f {
			return true
		}
	}
	return false
}

// Story is a user-submitted post about a cooking-fuel experience.
type Story struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	ImageURL   *string   `gorm:"size:500" json:"image_url"`
	Location   *string   `gorm:"size:255" json:"location"`
	FuelType   *string   `gorm:"size:32;index" json:"fuel_type"`
	AuthorName string    `gorm:"size:100;not null" json:"author_name"`
	LikesCount int       `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// StoryLike records one like per (story, caller identifier).
type StoryLike struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	StoryID        uint      `gorm:"not null;uniqueIndex:idx_story_user" json:"story_id"`
	UserIdentifier string    `gorm:"size:255;not null;uniqueIndex:idx_story_user" json:"user_identifier"`
	CreatedAt      time.Time `json:"created_at"`
}

// Thread is a forum discussion topic.
type Thread struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	AuthorName   string    `gorm:"size:100;not null" json:"author_name"`
	RepliesCount int       `gorm:"not null;default:0" json:"replies_count"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// Comment is a reply within a thread.
type Comment struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ThreadID   uint      `gorm:"not null;index" json:"thread_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	AuthorName string    `gorm:"size:100;not null" json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{&Story{}, &StoryLike{}, &Thread{}, &Comment{}}
}
