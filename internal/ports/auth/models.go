package auth

// Claims representa la información extraída del token.
type Claims struct {
	UserID   string // veterinario / staff
	Email    string
	ClinicID string
	Role     string
}
