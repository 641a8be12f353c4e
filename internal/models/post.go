package models

// Post is a row of the posts table. UserID is checked against users when the
// post is created; the foreign key itself is declared by migration 000003.
type Post struct {
	ID      uint   `gorm:"primaryKey;index" json:"id"`
	Title   string `gorm:"size:50" json:"title"`
	Content string `gorm:"size:100" json:"content"`
	UserID  int64  `json:"user_id"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string {
	return "posts"
}
