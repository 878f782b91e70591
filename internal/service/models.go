package service

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
}

const (
	MsgRegistered       = "User registered successfully. Please verify your email."
	MsgEmailVerified    = "Email verified successfully. You can now log in."
	MsgAlreadyVerified  = "Email is already verified. You can log in now."
	MsgVerificationSent = "Verification email has been sent. Please check your inbox."
	MsgResetRequested   = "If an account exists with this email, you will receive password reset instructions."
	MsgPasswordReset    = "Password has been reset successfully. You can now log in with your new password."
	MsgLoggedIn         = "Login successful"
	MsgTokensRefreshed  = "Tokens refreshed successfully"
	MsgLoggedOut        = "Logged out successfully"
	MsgAccountBlocked   = "Account has been blocked"
)
