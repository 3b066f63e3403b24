package models

import "time"

// Location is a point on the globe, optionally stamped with when it was reported
type Location struct {
	Lat       float64    `dynamodbav:"lat" json:"lat"`
	Lng       float64    `dynamodbav:"lng" json:"lng"`
	UpdatedAt *time.Time `dynamodbav:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Item is a clothing item listed for exchange by its owner
type Item struct {
	ID             string    `dynamodbav:"id" json:"id" gorm:"primaryKey;type:varchar(64)"`                               // ✅ Partition Key
	OwnerID        string    `dynamodbav:"ownerId" json:"ownerId" gorm:"type:varchar(64);index:idx_items_owner;not null"` // Indexed via GSI
	Category       string    `dynamodbav:"category,omitempty" json:"category,omitempty" gorm:"type:varchar(64);index:idx_items_category"`
	Size           string    `dynamodbav:"size,omitempty" json:"size,omitempty" gorm:"type:varchar(32)"`
	ItemStory      string    `dynamodbav:"itemStory,omitempty" json:"itemStory,omitempty" gorm:"type:text"`
	PhotoURLs      []string  `dynamodbav:"photoURLs,omitempty" json:"photoURLs,omitempty" gorm:"type:text;serializer:json"`
	Color          string    `dynamodbav:"color,omitempty" json:"color,omitempty"`
	Brand          string    `dynamodbav:"brand,omitempty" json:"brand,omitempty"`
	Material       string    `dynamodbav:"material,omitempty" json:"material,omitempty"`
	AdditionalInfo string    `dynamodbav:"additionalInfo,omitempty" json:"additionalInfo,omitempty" gorm:"type:text"`
	SizeDetails    string    `dynamodbav:"sizeDetails,omitempty" json:"sizeDetails,omitempty"`
	Location       *Location `dynamodbav:"location,omitempty" json:"location,omitempty" gorm:"type:text;serializer:json"`
	CreatedAt      time.Time `dynamodbav:"created_at" json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time `dynamodbav:"updated_at" json:"updated_at" gorm:"autoUpdateTime:false"`
}

func (Item) TableName() string { return "items" }

// ItemFilter narrows a catalog listing. Zero values match everything.
type ItemFilter struct {
	OwnerID  string
	Category string
	Limit    int
}

// Matches reports whether the item satisfies every set field of the filter
func (f ItemFilter) Matches(item Item) bool {
	if f.OwnerID != "" && item.OwnerID != f.OwnerID {
		return false
	}
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	return true
}
