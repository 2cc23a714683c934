package dto

type SignUpRequest struct {
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	Name           string   `json:"name"`
	Age            int      `json:"age"`
	Profession     string   `json:"profession"`
	Interests      []string `json:"interests"`
	LookingFor     string   `json:"looking_for"`
	ShowPhoto      bool     `json:"show_photo"`
	ShowProfession bool     `json:"show_profession"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type AuthTokensResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresInSec int64           `json:"expires_in_sec"`
	Profile      ProfileResponse `json:"profile"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}

type ForgotPasswordResponse struct {
	OK bool `json:"ok"`
}
