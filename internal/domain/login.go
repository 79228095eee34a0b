package domain

// LoginResult is the outcome of a login attempt.
type LoginResult int

const (
	// LoginInvalidCredentials covers both an unknown username and a wrong password.
	LoginInvalidCredentials LoginResult = iota

	// LoginAccountDisabled means the password matched but the account is disabled.
	LoginAccountDisabled

	// LoginSuccess means the password matched and the account is active.
	LoginSuccess
)

// String returns the string representation of the login result.
func (r LoginResult) String() string {
	switch r {
	case LoginSuccess:
		return "success"
	case LoginAccountDisabled:
		return "account_disabled"
	default:
		return "invalid_credentials"
	}
}
