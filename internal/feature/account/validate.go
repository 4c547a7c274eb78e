package account

import "regexp"

// Format rules. Name accepts 2-5 CJK ideographs or 3-20 latin letters, spaces
// and hyphens starting with a letter. Password must also mix character
// classes, checked separately below.
var (
	reEmail    = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]+@[a-z0-9_-]+(\.[a-z]+){1,2}$`)
	reName     = regexp.MustCompile(`^(?:[\x{4E00}-\x{9FA5}]{2,5}|[A-Za-z][A-Za-z -]{2,19})$`)
	rePassword = regexp.MustCompile(`^[A-Za-z0-9,.;:!@#$%^&*_-]{6,18}$`)
	reOneClass = regexp.MustCompile(`^([0-9]+|[A-Z]+|[a-z]+)$`)
)

func validEmail(email string) bool { return reEmail.MatchString(email) }

func validName(name string) bool { return reName.MatchString(name) }

// validPassword requires the allowed charset and length, and rejects passwords
// built from a single character class.
func validPassword(pw string) bool {
	return rePassword.MatchString(pw) && !reOneClass.MatchString(pw)
}
