package templates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oksasatya/otomasyon-magazasi/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = FormatTime(t) }
}
func WithAction(url, text string) Option {
	return func(d *EmailData) {
		d.ActionURL = url
		d.ActionText = text
	}
}
func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) { d.ExpiresAtText = FormatTime(time.Now().Add(dur)) }
}
func WithAutomation(title, url string) Option {
	return func(d *EmailData) {
		d.AutomationTitle = title
		d.AutomationURL = url
	}
}

// FormatTime renders t in Istanbul time, e.g. "02.01.2006 15:04".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(Istanbul).Format("02.01.2006 15:04")
}

// FormatAmount renders minor units as a Turkish formatted price: 123456 try -> "₺1.234,56".
func FormatAmount(minor int64, currency string) string {
	neg := minor < 0
	if neg {
		minor = -minor
	}
	whole := strconv.FormatInt(minor/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := fmt.Sprintf("%s,%02d", b.String(), minor%100)
	switch strings.ToLower(currency) {
	case "", "try":
		s = "₺" + s
	default:
		s = s + " " + strings.ToUpper(currency)
	}
	if neg {
		return "-" + s
	}
	return s
}

// NewBaseEmailData fills the shared fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, name, email, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: recipient,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,

		Time: FormatTime(time.Now()),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(cfg *config.Config, name, email, verifyURL string, ttl time.Duration) map[string]any {
	d := NewBaseEmailData(cfg, VerifyEmail, name, email, email,
		WithAction(verifyURL, "E-postamı doğrula"), WithExpiresIn(ttl))
	return ToMap(d)
}

func NewForgotPasswordData(cfg *config.Config, name, email, resetURL string, ttl time.Duration) map[string]any {
	d := NewBaseEmailData(cfg, ForgotPassword, name, email, email,
		WithAction(resetURL, "Şifremi sıfırla"), WithExpiresIn(ttl))
	return ToMap(d)
}

func NewWelcomeData(cfg *config.Config, name, email string) map[string]any {
	d := NewBaseEmailData(cfg, Welcome, name, email, email,
		WithAction(cfg.FrontendURL+"/otomasyonlar", "Otomasyonları keşfet"))
	return ToMap(d)
}

// Purchase describes a completed sale for receipt and sale emails.
type Purchase struct {
	ID              string
	AutomationTitle string
	AutomationSlug  string
	BuyerName       string
	AmountMinor     int64
	FeeMinor        int64
	Currency        string
	CompletedAt     time.Time
}

func purchaseOpts(cfg *config.Config, p Purchase) []Option {
	return []Option{
		WithAutomation(p.AutomationTitle, cfg.FrontendURL+"/otomasyon/"+p.AutomationSlug),
		WithTime(p.CompletedAt),
		func(d *EmailData) {
			d.PurchaseID = p.ID
			d.Amount = FormatAmount(p.AmountMinor, p.Currency)
		},
	}
}

func NewPurchaseReceiptData(cfg *config.Config, name, email string, p Purchase) map[string]any {
	opts := append(purchaseOpts(cfg, p), WithAction(cfg.FrontendURL+"/satin-almalarim", "İndirmeye git"))
	return ToMap(NewBaseEmailData(cfg, PurchaseReceipt, name, email, email, opts...))
}

func NewSaleNotificationData(cfg *config.Config, name, email string, p Purchase) map[string]any {
	opts := append(purchaseOpts(cfg, p),
		WithAction(cfg.FrontendURL+"/gelistirici/satislar", "Satışlarımı gör"),
		func(d *EmailData) {
			d.BuyerName = p.BuyerName
			d.PlatformFee = FormatAmount(p.FeeMinor, p.Currency)
			d.NetAmount = FormatAmount(p.AmountMinor-p.FeeMinor, p.Currency)
		})
	return ToMap(NewBaseEmailData(cfg, SaleNotification, name, email, email, opts...))
}

func NewAutomationApprovedData(cfg *config.Config, name, email, title, slug string) map[string]any {
	url := cfg.FrontendURL + "/otomasyon/" + slug
	d := NewBaseEmailData(cfg, AutomationApproved, name, email, email,
		WithAutomation(title, url), WithAction(url, "Yayındaki sayfayı gör"))
	return ToMap(d)
}

func NewAutomationRejectedData(cfg *config.Config, name, email, title, reason string) map[string]any {
	d := NewBaseEmailData(cfg, AutomationRejected, name, email, email,
		WithAutomation(title, ""),
		WithAction(cfg.FrontendURL+"/gelistirici/otomasyonlar", "Otomasyonlarımı düzenle"),
		func(d *EmailData) { d.Reason = reason })
	return ToMap(d)
}

func NewReviewData(cfg *config.Config, name, email, title, slug, reviewer string, rating int, comment string) map[string]any {
	url := cfg.FrontendURL + "/otomasyon/" + slug
	d := NewBaseEmailData(cfg, NewReview, name, email, email,
		WithAutomation(title, url), WithAction(url, "Değerlendirmeyi gör"),
		func(d *EmailData) {
			d.BuyerName = reviewer
			d.Rating = rating
			d.Comment = comment
		})
	return ToMap(d)
}

func NewContactData(cfg *config.Config, fromName, fromEmail, subject, message string) map[string]any {
	d := NewBaseEmailData(cfg, ContactMessage, "Destek ekibi", cfg.SupportEmail, cfg.SupportEmail,
		func(d *EmailData) {
			d.FromName = fromName
			d.FromEmail = fromEmail
			d.Subject = subject
			d.Message = message
		})
	return ToMap(d)
}
