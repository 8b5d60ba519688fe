package validation

import "unicode"

var strengthLabels = [...]string{"çok zayıf", "zayıf", "orta", "güçlü", "çok güçlü"}

// PasswordStrength scores pw from 0 to 4 and returns the Turkish label shown
// next to the password field. Length under 8 is always 0.
func PasswordStrength(pw string) (int, string) {
	runes := []rune(pw)
	if len(runes) < 8 {
		return 0, strengthLabels[0]
	}
	var lower, upper, digit, symbol bool
	for _, r := range runes {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	classes := 0
	for _, ok := range []bool{lower, upper, digit, symbol} {
		if ok {
			classes++
		}
	}
	score := classes - 1
	if len(runes) >= 12 && score < 4 {
		score++
	}
	if score < 0 {
		score = 0
	}
	if score > 4 {
		score = 4
	}
	return score, strengthLabels[score]
}
