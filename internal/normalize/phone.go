package normalize

import "strings"

// MaxLocalMobileDigits 本地手机号最大位数（04xx xxx xxx）
const MaxLocalMobileDigits = 10

// StripNonDigits removes every rune that is not an ASCII decimal digit.
func StripNonDigits(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TruncateDigits keeps at most max leading bytes of a digit string.
func TruncateDigits(digits string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(digits) > max {
		return digits[:max]
	}
	return digits
}

// FormatLocalMobile groups a digit string as 4-3-3 for display ("0400 000 000").
// Shorter input is grouped only up to the boundaries it reaches.
func FormatLocalMobile(digits string) string {
	if digits == "" {
		return ""
	}
	formatted := digits
	if len(digits) > 4 {
		formatted = digits[:4] + " " + digits[4:]
	}
	// index 8 of the partially formatted string is the position after the 7th digit
	if len(digits) > 7 {
		formatted = formatted[:8] + " " + formatted[8:]
	}
	return formatted
}

// NormalizeContactNumber runs the phone keystroke pipeline: strip, truncate to
// MaxLocalMobileDigits, format. It returns the stored digits and the display value.
func NormalizeContactNumber(raw string) (digits string, display string) {
	digits = TruncateDigits(StripNonDigits(raw), MaxLocalMobileDigits)
	return digits, FormatLocalMobile(digits)
}
