package domain

// UserProfile is the subset of the marketplace users table the chat backend
// reads for conversation display. Owned by the core marketplace service.
type UserProfile struct {
	ID    int    `gorm:"column:id;primaryKey" json:"id"`
	Name  string `gorm:"column:name" json:"name"`
	Image string `gorm:"column:image" json:"image"`
}

func (UserProfile) TableName() string {
	return "users"
}

// LawyerProfile mirrors UserProfile for the lawyers table.
type LawyerProfile struct {
	ID    int    `gorm:"column:id;primaryKey" json:"id"`
	Name  string `gorm:"column:name" json:"name"`
	Image string `gorm:"column:image" json:"image"`
}

func (LawyerProfile) TableName() string {
	return "lawyers"
}

// Profile is the resolved display info for a conversation partner.
type Profile struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}
