package models

// User is the authenticated account as reported by the remote API. The agent
// never stores credentials; verification happens server-side at login.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
