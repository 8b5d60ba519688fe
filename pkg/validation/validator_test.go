package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUsername(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ahmet_42", true},
		{"abc", true},
		{"ab", false},
		{"1ahmet", false},
		{"Ahmet", false},
		{"ahmet-yilmaz", false},
		{"şule", false},
		{"a23456789012345678901234567890", true},
		{"a234567890123456789012345678901", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUsername(tt.in))
		})
	}
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("ayse@example.com"))
	assert.False(t, IsEmail("ayse@"))
	assert.False(t, IsEmail(""))
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		in        string
		wantScore int
		wantLabel string
	}{
		{"kisa1A", 0, "çok zayıf"},
		{"sadeceharf", 0, "çok zayıf"},
		{"harfvesayi12", 2, "orta"},
		{"Harfsayi12", 2, "orta"},
		{"Harf.sayi12", 3, "güçlü"},
		{"Uzun.Parola.2024", 4, "çok güçlü"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			score, label := PasswordStrength(tt.in)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}

type registerPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,strongpwd"`
	IBAN     string `json:"iban" validate:"omitempty,iban"`
}

func TestRegisterAndToDetails(t *testing.T) {
	v := validator.New()
	Register(v)

	err := v.Struct(registerPayload{
		Email:    "bad",
		Username: "X",
		Password: "password",
		IBAN:     "TR000000",
	})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "geçerli bir e-posta adresi olmalı", details["email"])
	assert.Contains(t, details["username"], "3-30 karakter")
	assert.Contains(t, details["password"], "büyük harf")
	assert.Equal(t, "geçerli bir TR IBAN olmalı", details["iban"])

	ok := v.Struct(registerPayload{
		Email:    "ayse@example.com",
		Username: "ayse",
		Password: "Guclu.Parola1",
		IBAN:     "TR180006200119000006672315",
	})
	assert.NoError(t, ok)
}
