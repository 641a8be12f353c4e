package validation

import "postboard/internal/models"

// UserInput is the body accepted by create and update user.
type UserInput struct {
	Username *string `json:"username" validate:"required"`
}

// ToModel builds an unsaved User from the input.
func (in UserInput) ToModel() models.User {
	return models.User{Username: deref(in.Username)}
}

// UserBase is the response shape without the generated id.
type UserBase struct {
	Username string `json:"username"`
}

// UserResponse is the full response shape of a user.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// NewUserBase drops the id of u.
func NewUserBase(u *models.User) UserBase {
	return UserBase{Username: u.Username}
}

// NewUserResponse converts a stored user for output.
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username}
}

// NewUserResponses converts a listing; an empty listing is [] rather than null.
func NewUserResponses(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// PostInput is the body accepted by create post.
type PostInput struct {
	Title   *string `json:"title" validate:"required"`
	Content *string `json:"content" validate:"required"`
	UserID  *int64  `json:"user_id" validate:"required"`
}

// ToModel builds an unsaved Post from the input.
func (in PostInput) ToModel() models.Post {
	p := models.Post{
		Title:   deref(in.Title),
		Content: deref(in.Content),
	}
	if in.UserID != nil {
		p.UserID = *in.UserID
	}
	return p
}

// PostResponse is the response shape of a post.
type PostResponse struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  int64  `json:"user_id"`
}

// NewPostResponse converts a stored post for output.
func NewPostResponse(p *models.Post) PostResponse {
	return PostResponse{ID: p.ID, Title: p.Title, Content: p.Content, UserID: p.UserID}
}

// NewPostResponses converts a listing; an empty listing is [] rather than null.
func NewPostResponses(posts []models.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, NewPostResponse(&posts[i]))
	}
	return out
}

// deref returns the pointed-to string, or "" for nil.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
