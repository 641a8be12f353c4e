// Package models contains data structures for the application's domain models.
package models

// User is a row of the users table.
type User struct {
	ID       uint   `gorm:"primaryKey;index" json:"id"`
	Username string `gorm:"size:50;unique" json:"username"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}
