package admin

import (
	"context"
	"time"
)

// ===== DTOs =====

type UserRow struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"` // "user" | "admin"
	CreatedAt time.Time `json:"createdAt"`
}

// ===== Filters =====

type ListFilter struct {
	Query string
	Role  string
	Page  int
	Size  int
}

// ===== Request Bodies =====

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// Counts is the row count of every catalog table plus users.
type Counts struct {
	Series     int `json:"series"`
	Books      int `json:"books"`
	Chapters   int `json:"chapters"`
	Characters int `json:"characters"`
	Locations  int `json:"locations"`
	Items      int `json:"items"`
	Artists    int `json:"artists"`
	Art        int `json:"art"`
	Users      int `json:"users"`
}

type StatsResponse struct {
	Counts         Counts `json:"counts"`
	Admins         int    `json:"admins"`
	SignupsLast24h int    `json:"signupsLast24h"`
	ArtLast7d      int    `json:"artLast7d"`
}

// ===== Store Interface =====

type Store interface {
	// Users
	ListUsers(ctx context.Context, filter ListFilter) ([]UserRow, int, error)
	GetUser(ctx context.Context, id string) (*UserRow, error)
	SetUserRole(ctx context.Context, id, role string) error
	AdminCount(ctx context.Context) (int, error)

	// Stats
	Stats(ctx context.Context) (*StatsResponse, error)
}
