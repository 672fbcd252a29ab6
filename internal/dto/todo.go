package dto

import "time"

type CreateTodoRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
}

// UpdateTodoRequest is a partial update: nil = не менять, значение = поставить.
type UpdateTodoRequest struct {
	Title      *string `json:"title" binding:"omitempty,min=1,max=255"`
	IsComplete *bool   `json:"is_complete"`
}

type TodoResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	IsComplete bool      `json:"is_complete"`
	UserID     int64     `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
