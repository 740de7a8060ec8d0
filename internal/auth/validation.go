package auth

import (
	"regexp"
	"strings"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
)

const passwordSpecials = "@$!%*?&"

// Validation messages.
const (
	msgUsernameRequired = "Username is required"
	msgUsernameInvalid  = "Username must be 3-20 characters (alphanumeric and underscores only)"
	msgEmailRequired    = "Email is required"
	msgEmailInvalid     = "Please provide a valid email address"
	msgPasswordRequired = "Password is required"
	msgPasswordWeak     = "Password must be at least 8 characters with uppercase, lowercase, number, and special character (@$!%*?&)"
)

// ValidUsername reports whether username has 3-20 letters, digits or underscores.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPassword reports whether password is at least 8 characters drawn from
// letters, digits and @$!%*?&, with at least one of each class.
func ValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}

// ValidateRegistration returns every problem with the registration input.
func ValidateRegistration(username, email, password string) []string {
	var problems []string
	switch {
	case username == "":
		problems = append(problems, msgUsernameRequired)
	case !ValidUsername(username):
		problems = append(problems, msgUsernameInvalid)
	}
	problems = append(problems, validateEmail(email)...)
	switch {
	case password == "":
		problems = append(problems, msgPasswordRequired)
	case !ValidPassword(password):
		problems = append(problems, msgPasswordWeak)
	}
	return problems
}

// ValidateLogin returns every problem with the login input.
func ValidateLogin(email, password string) []string {
	problems := validateEmail(email)
	if password == "" {
		problems = append(problems, msgPasswordRequired)
	}
	return problems
}

func validateEmail(email string) []string {
	switch {
	case email == "":
		return []string{msgEmailRequired}
	case !ValidEmail(email):
		return []string{msgEmailInvalid}
	}
	return nil
}

// Sanitize trims surrounding whitespace and strips angle brackets.
func Sanitize(input string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(strings.TrimSpace(input))
}
