package application

import (
	"errors"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
	"github.com/oksasatya/otomasyon-magazasi/pkg/apperror"
)

var (
	ErrInvalidCredentials = apperror.New(apperror.KindAuth, "E-posta veya şifre hatalı.")
	ErrSessionExpired     = apperror.New(apperror.KindAuth, "Oturumunuzun süresi doldu. Lütfen tekrar giriş yapın.")
	ErrUserNotFound       = apperror.New(apperror.KindNotFound, "Kullanıcı bulunamadı.")
	ErrEmailTaken         = apperror.New(apperror.KindValidation, "Bu e-posta adresi zaten kayıtlı.")
	ErrUsernameTaken      = apperror.New(apperror.KindValidation, "Bu kullanıcı adı zaten alınmış.")
	ErrInvalidUsername    = apperror.New(apperror.KindValidation, "Kullanıcı adı 3-30 karakter olmalı, küçük harfle başlamalı ve yalnızca küçük harf, rakam ve alt çizgi içermeli.")
	ErrInvalidEmail       = apperror.New(apperror.KindValidation, "Geçerli bir e-posta adresi girin.")
	ErrWeakPassword       = apperror.New(apperror.KindValidation, "Şifre en az 8 karakter olmalı.")
	ErrInvalidToken       = apperror.New(apperror.KindValidation, "Bağlantı geçersiz veya süresi dolmuş.")
	ErrOAuthDisabled      = apperror.New(apperror.KindServer, "Google ile giriş şu anda kullanılamıyor.")
	ErrOAuthUnverified    = apperror.New(apperror.KindAuth, "Google hesabınızın e-posta adresi doğrulanmamış.")
	ErrUnavailable        = apperror.New(apperror.KindServer, "Hizmet şu anda kullanılamıyor.")
	ErrMailDisabled       = apperror.New(apperror.KindServer, "E-posta gönderimi kapalı.")

	ErrAutomationNotFound = apperror.New(apperror.KindNotFound, "Otomasyon bulunamadı.")
	ErrCategoryNotFound   = apperror.New(apperror.KindNotFound, "Kategori bulunamadı.")
	ErrNotOwner           = apperror.New(apperror.KindPermission, "Bu otomasyon üzerinde işlem yetkiniz yok.")
	ErrNotDeveloper       = apperror.New(apperror.KindPermission, "Bu işlem için geliştirici hesabı gerekli.")
	ErrInvalidPrice       = apperror.New(apperror.KindValidation, "Fiyat 0 (ücretsiz) veya en az 1,00 ₺ olmalı.")
	ErrInvalidIBAN        = apperror.New(apperror.KindValidation, "Geçerli bir TR IBAN girin.")
	ErrInvalidCursor      = apperror.New(apperror.KindValidation, "Geçersiz sayfa imleci.")
	ErrInvalidRole        = apperror.New(apperror.KindValidation, "Geçersiz rol.")
	ErrSelfDemotion       = apperror.New(apperror.KindValidation, "Kendi yönetici rolünüzü kaldıramazsınız.")
	ErrInvalidStatus      = apperror.New(apperror.KindValidation, "Geçersiz durum.")
	ErrNameRequired       = apperror.New(apperror.KindValidation, "Ad zorunlu.")
	ErrEmailContent       = apperror.New(apperror.KindValidation, "Şablon ya da konu ile metin/HTML gerekli.")
	ErrInvalidRating      = apperror.New(apperror.KindValidation, "Puan 1 ile 5 arasında olmalı.")
	ErrCommentTooLong     = apperror.New(apperror.KindValidation, "Yorum en fazla 1000 karakter olabilir.")
	ErrReasonRequired     = apperror.New(apperror.KindValidation, "Red gerekçesi zorunlu.")
	ErrTitleRequired      = apperror.New(apperror.KindValidation, "Başlık zorunlu.")
	ErrFileTooLarge       = apperror.New(apperror.KindValidation, "Dosya boyutu sınırı aşıldı.")
	ErrFileType           = apperror.New(apperror.KindValidation, "Bu dosya türü desteklenmiyor.")
	ErrNoFile             = apperror.New(apperror.KindNotFound, "Bu otomasyon için indirilebilir dosya yok.")

	ErrNotPurchasable   = apperror.New(apperror.KindValidation, "Bu otomasyon şu anda satın alınamaz.")
	ErrOwnAutomation    = apperror.New(apperror.KindValidation, "Kendi otomasyonunuzu satın alamazsınız.")
	ErrAlreadyPurchased = apperror.New(apperror.KindValidation, "Bu otomasyonu zaten satın aldınız.")
	ErrSellerNotReady   = apperror.New(apperror.KindValidation, "Geliştiricinin ödeme hesabı henüz hazır değil.")
	ErrCartEmpty        = apperror.New(apperror.KindValidation, "Sepetiniz boş.")
	ErrPurchaseRequired = apperror.New(apperror.KindPermission, "Bu işlem için önce otomasyonu satın almalısınız.")
	ErrPurchaseNotFound = apperror.New(apperror.KindNotFound, "Satın alma kaydı bulunamadı.")
	ErrPaymentsDisabled = apperror.New(apperror.KindServer, "Ödeme sistemi şu anda kullanılamıyor.")
)

// orNotFound replaces repository.ErrNotFound with the domain specific error.
func orNotFound(err, nf error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nf
	}
	return err
}
