package models

type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null"`
	Role         UserRole `gorm:"type:varchar(20);not null"`
	IsVerified   bool     `gorm:"default:false"`

	// Relations
	Profile *Profile `gorm:"foreignKey:UserID"`
}

type Profile struct {
	BaseModel
	UserID      string `gorm:"not null;uniqueIndex"`
	DisplayName string `gorm:"not null"`
	Phone       string
	PhotoURL    string
	Bio         string
	Completion  int `gorm:"default:0"` // percent, 0-100
}
