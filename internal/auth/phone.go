package auth

// ValidPhoneNumber does a basic E.164 check: leading '+', at least 10
// characters, digits only after the plus.
func ValidPhoneNumber(phone string) bool {
	if len(phone) < 10 || phone[0] != '+' {
		return false
	}
	for _, c := range phone[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
