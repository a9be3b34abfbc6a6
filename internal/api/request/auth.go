package request

type InitiateLogin struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTP struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,otp"`
}

type Login struct {
	Challenge string `json:"challenge" validate:"required"`
	Password  string `json:"password" validate:"required,min=6"`
}

type UpdateProfile struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
}

type SetAvatar struct {
	// DataURL is a base64 data: URL, e.g. "data:image/png;base64,...".
	DataURL string `json:"data_url" validate:"required"`
}
