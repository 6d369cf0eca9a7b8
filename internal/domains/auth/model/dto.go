package model

// RegisterRequest is the registration command input. Email is used only
// for authentication; it is not stored on the public user document.
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the sign-in command input.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session identifies a signed-in principal together with its public
// username.
type Session struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// SessionResponse carries the signed session token issued after a
// successful register or login.
type SessionResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}
