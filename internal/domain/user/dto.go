package user

// AuthRequest тело POST /api/auth/signup и /api/auth/signin
type AuthRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password" minLength:"4"`
}
