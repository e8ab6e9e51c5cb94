package handler

import "gazette/store"

// Handler carries the dependencies shared by every route.
type Handler struct {
	Store        *store.Store
	JWTSecret    string
	PageSize     int
	EnableSignup bool
	AdminUserID  string
	Environment  string
}
