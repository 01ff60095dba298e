package auth

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Email is invalid"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

type UpdateProfileRequest struct {
	Name  string `form:"name" validate:"required" msg:"Name is required"`
	Email string `form:"email" validate:"required,email" msg:"Email is invalid"`
}

type LoginResult struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
}
