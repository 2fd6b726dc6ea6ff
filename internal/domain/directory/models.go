package directory

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Student carries the directory attributes the outing engine needs: who to
// text the OTP to, and the course/branch/gender axes staff scope is checked
// against.
type Student struct {
	UserID                    string `json:"userId"`
	Name                      string `json:"name"`
	Course                    string `json:"course"`
	Branch                    string `json:"branch"`
	Gender                    string `json:"gender"`
	ParentPhone               string `json:"parentPhone"`
	ParentPermissionForOuting bool   `json:"parentPermissionForOuting"`
}
