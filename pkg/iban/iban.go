// Package iban validates Turkish IBANs and resolves the issuing bank from the
// bank code embedded in them.
package iban

import (
	"errors"
	"math/big"
	"strings"
)

const (
	CountryCode = "TR"
	Length      = 26
)

var (
	ErrEmpty       = errors.New("iban is required")
	ErrCountry     = errors.New("iban must start with TR")
	ErrLength      = errors.New("iban must be 26 characters")
	ErrCharacters  = errors.New("iban must contain digits after the country code")
	ErrChecksum    = errors.New("iban checksum is invalid")
	ninetySeven    = big.NewInt(97)
	bankCodeOffset = 4
)

// banks maps the 5 digit EFT bank code to a display name.
var banks = map[string]string{
	"00010": "T.C. Ziraat Bankası",
	"00012": "Türkiye Halk Bankası",
	"00015": "Türkiye Vakıflar Bankası",
	"00032": "Türk Ekonomi Bankası",
	"00046": "Akbank",
	"00059": "Şekerbank",
	"00062": "Garanti BBVA",
	"00064": "Türkiye İş Bankası",
	"00067": "Yapı ve Kredi Bankası",
	"00099": "ING Bank",
	"00103": "Fibabanka",
	"00111": "QNB Bank",
	"00123": "HSBC Bank",
	"00124": "Alternatifbank",
	"00134": "Denizbank",
	"00135": "Anadolubank",
	"00143": "Aktif Yatırım Bankası",
	"00146": "Odea Bank",
	"00203": "Albaraka Türk",
	"00205": "Kuveyt Türk",
	"00206": "Türkiye Finans",
	"00209": "Ziraat Katılım",
	"00210": "Vakıf Katılım",
	"00211": "Türkiye Emlak Katılım",
}

// Normalize strips spaces and dashes and upper-cases the value.
func Normalize(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "\t", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(s)))
}

// Validate checks a Turkish IBAN: country, length, digits and the ISO 13616 mod-97 checksum.
func Validate(s string) error {
	v := Normalize(s)
	if v == "" {
		return ErrEmpty
	}
	if !strings.HasPrefix(v, CountryCode) {
		return ErrCountry
	}
	if len(v) != Length {
		return ErrLength
	}
	for _, r := range v[2:] {
		if r < '0' || r > '9' {
			return ErrCharacters
		}
	}
	if !checksumOK(v) {
		return ErrChecksum
	}
	return nil
}

// Valid reports whether s is a valid Turkish IBAN.
func Valid(s string) bool { return Validate(s) == nil }

// BankCode returns the 5 digit bank code of a normalized TR IBAN, or "".
func BankCode(s string) string {
	v := Normalize(s)
	if len(v) < bankCodeOffset+5 || !strings.HasPrefix(v, CountryCode) {
		return ""
	}
	return v[bankCodeOffset : bankCodeOffset+5]
}

// BankName returns the bank name for the IBAN's bank code, or "" when unknown.
func BankName(s string) string {
	return banks[BankCode(s)]
}

// Format groups a normalized IBAN in blocks of four for display.
func Format(s string) string {
	v := Normalize(s)
	var b strings.Builder
	for i, r := range v {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func checksumOK(v string) bool {
	rearranged := v[4:] + v[:4]
	var digits strings.Builder
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			digits.WriteString(big.NewInt(int64(r-'A') + 10).String())
			continue
		}
		digits.WriteRune(r)
	}
	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, ninetySeven).Int64() == 1
}
