// Package paymentmethod validates the instruments a payment can be made with.
package paymentmethod

import (
	"regexp"
	"strings"
	"time"
)

var vpaPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+$`)

// ValidVPA reports whether vpa looks like a UPI address such as user@bank.
func ValidVPA(vpa string) bool {
	return vpaPattern.MatchString(vpa)
}

// Digits strips spaces and dashes from a card number.
func Digits(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}

// ValidLuhn checks a 13 to 19 digit card number against the Luhn checksum.
func ValidLuhn(number string) bool {
	n := Digits(number)
	if len(n) < 13 || len(n) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(n) - 1; i >= 0; i-- {
		c := n[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidExpiry reports whether the card is usable in the month of now. Two digit years are
// taken as 20YY.
func ValidExpiry(month, year int, now time.Time) bool {
	if month < 1 || month > 12 {
		return false
	}
	if year < 100 {
		year += 2000
	}
	current := now.Year()*12 + int(now.Month())
	return year*12+month >= current
}

const (
	NetworkVisa       = "visa"
	NetworkMastercard = "mastercard"
	NetworkAmex       = "amex"
	NetworkRupay      = "rupay"
	NetworkUnknown    = "unknown"
)

// Network detects the card network from the number's prefix.
func Network(number string) string {
	n := Digits(number)
	switch {
	case strings.HasPrefix(n, "4"):
		return NetworkVisa
	case len(n) >= 2 && n[0] == '5' && n[1] >= '1' && n[1] <= '5':
		return NetworkMastercard
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return NetworkAmex
	case strings.HasPrefix(n, "60"), strings.HasPrefix(n, "65"):
		return NetworkRupay
	case len(n) >= 2 && n[0] == '8' && n[1] >= '1' && n[1] <= '9':
		return NetworkRupay
	}
	return NetworkUnknown
}

// Last4 returns the last four digits of the card number.
func Last4(number string) string {
	n := Digits(number)
	if len(n) <= 4 {
		return n
	}
	return n[len(n)-4:]
}
