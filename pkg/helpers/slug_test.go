package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Gmail'den Slack'e Otomatik Bildirim", "gmail-den-slack-e-otomatik-bildirim"},
		{"  Şirket İçi Ödeme Takibi  ", "sirket-ici-odeme-takibi"},
		{"n8n + OpenAI --- Özetleyici!", "n8n-openai-ozetleyici"},
		{"ÇĞIİÖŞÜ", "cgiiosu"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
