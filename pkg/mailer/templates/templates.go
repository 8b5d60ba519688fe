package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Istanbul is the display zone for every time shown in emails (UTC+3, no DST).
var Istanbul = time.FixedZone("TRT", 3*60*60)

// EmailData defines standard fields for email templates.
type EmailData struct {
	// Basic info
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	// Company info
	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`

	// URLs
	LogoURL        string `json:"LogoURL"`
	SupportURL     string `json:"SupportURL"`
	PrivacyURL     string `json:"PrivacyURL"`
	UnsubscribeURL string `json:"UnsubscribeURL"`

	// Primary call to action
	ActionURL  string `json:"ActionURL"`
	ActionText string `json:"ActionText"`

	// Timing
	Time          string `json:"Time"`
	ExpiresAtText string `json:"ExpiresAtText"`

	// Marketplace details
	AutomationTitle string `json:"AutomationTitle"`
	AutomationURL   string `json:"AutomationURL"`
	Amount          string `json:"Amount"`
	PlatformFee     string `json:"PlatformFee"`
	NetAmount       string `json:"NetAmount"`
	PurchaseID      string `json:"PurchaseID"`
	BuyerName       string `json:"BuyerName"`
	Reason          string `json:"Reason"`
	Rating          int    `json:"Rating"`
	Comment         string `json:"Comment"`

	// Contact form
	FromName  string `json:"FromName"`
	FromEmail string `json:"FromEmail"`
	Subject   string `json:"Subject"`
	Message   string `json:"Message"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.IsZero() {
			return fallback
		}
		return value
	}
}

// stars renders a 1..5 rating as filled/empty stars.
func stars(v any) string {
	n := 0
	switch x := v.(type) {
	case int:
		n = x
	case float64:
		n = int(x)
	}
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func baseFuncs() map[string]any {
	return map[string]any{
		"now":     func() time.Time { return time.Now().In(Istanbul) },
		"year":    func() int { return time.Now().In(Istanbul).Year() },
		"upper":   strings.ToUpper,
		"default": defaultFn,
		"stars":   stars,
	}
}

var (
	htmlFuncMap = htmpl.FuncMap(baseFuncs())
	textFuncMap = texttpl.FuncMap(baseFuncs())
)

// Email types rendered by the universal layout.
const (
	VerifyEmail        = "verify_email"
	ForgotPassword     = "forgot_password"
	Welcome            = "welcome"
	PurchaseReceipt    = "purchase_receipt"
	SaleNotification   = "sale_notification"
	AutomationApproved = "automation_approved"
	AutomationRejected = "automation_rejected"
	NewReview          = "new_review"
	ContactMessage     = "contact_message"
)

// Universal is the template name every typed email is rendered with.
const Universal = "universal"

var subjects = map[string]string{
	VerifyEmail:        "E-posta adresinizi doğrulayın",
	ForgotPassword:     "Şifre sıfırlama talebiniz",
	Welcome:            "Otomasyon Mağazası'na hoş geldiniz",
	PurchaseReceipt:    "Satın alma onayı",
	SaleNotification:   "Tebrikler, yeni bir satış yaptınız",
	AutomationApproved: "Otomasyonunuz yayında",
	AutomationRejected: "Otomasyonunuz onaylanmadı",
	NewReview:          "Otomasyonunuza yeni bir değerlendirme geldi",
	ContactMessage:     "İletişim formu",
}

// KnownType reports whether typ is rendered by the universal layout.
func KnownType(typ string) bool {
	_, ok := subjects[strings.ToLower(typ)]
	return ok
}

// Subject returns the subject line for the email type in data["Type"].
// Typed subjects get the automation title appended where it helps the reader.
func Subject(data map[string]any) string {
	typ := strings.ToLower(fmt.Sprintf("%v", data["Type"]))
	s, ok := subjects[typ]
	if !ok {
		return "Bildirim"
	}
	title := strings.TrimSpace(fmt.Sprintf("%v", data["AutomationTitle"]))
	switch typ {
	case PurchaseReceipt, SaleNotification, AutomationApproved, AutomationRejected, NewReview:
		if title != "" && title != "<nil>" {
			return s + ": " + title
		}
	case ContactMessage:
		if sub := strings.TrimSpace(fmt.Sprintf("%v", data["Subject"])); sub != "" && sub != "<nil>" {
			return s + ": " + sub
		}
	}
	return s
}

// renderFile loads and renders a single template file from the embedded FS.
// isHTML indicates whether to use html/template (true) or text/template (false).
func renderFile(filename string, isHTML bool, data any) (string, error) {
	var (
		buf bytes.Buffer
		err error
	)

	if isHTML {
		tpl, e := htmpl.New(filename).Funcs(htmlFuncMap).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse html %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	} else {
		tpl, e := texttpl.New(filename).Funcs(textFuncMap).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse text %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	}
	if err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}

// Render renders the subject plus the text and html bodies of a typed email.
func Render(data map[string]any) (subject string, text string, html string, err error) {
	typ := fmt.Sprintf("%v", data["Type"])
	if !KnownType(typ) {
		return "", "", "", fmt.Errorf("unknown email type %q", typ)
	}
	text, err = renderFile(Universal+".text.tmpl", false, data)
	if err != nil {
		return "", "", "", err
	}
	html, err = renderFile(Universal+".html.tmpl", true, data)
	if err != nil {
		return "", "", "", err
	}
	return Subject(data), strings.TrimSpace(text) + "\n", html, nil
}
