package router

import (
	"github.com/oksasatya/otomasyon-magazasi/internal/application"
	"github.com/oksasatya/otomasyon-magazasi/internal/container"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/cache"
	pginfra "github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/postgres"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/search"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/storage"
	handlers "github.com/oksasatya/otomasyon-magazasi/internal/interface/http"
	"github.com/oksasatya/otomasyon-magazasi/internal/router/modules"
)

// Services are the application services shared by the HTTP modules and the
// scheduler.
type Services struct {
	Auth      *application.AuthService
	Profile   *application.ProfileService
	Catalog   *application.CatalogService
	Developer *application.DeveloperService
	Cart      *application.CartService
	Favorites *application.FavoriteService
	Reviews   *application.ReviewService
	Checkout  *application.CheckoutService
	Admin     *application.AdminService
	Contact   *application.ContactService
}

// BuildServices wires repositories and adapters from the container singletons.
func BuildServices() *Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rdb := container.GetRedis()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	audit := pginfra.NewAuditRepository(pool)
	categories := pginfra.NewCategoryRepository(pool)
	automations := pginfra.NewAutomationRepository(pool)
	reviews := pginfra.NewReviewRepository(pool)
	favorites := pginfra.NewFavoriteRepository(pool)
	purchases := pginfra.NewPurchaseRepository(pool)
	accounts := pginfra.NewStripeAccountRepository(pool)

	store := storage.NewGCS(container.GetGCS(), cfg.GCSBucket)
	gateway := container.GetStripe()
	c := cache.New(rdb, logger)
	mail := container.GetMailQueue()

	// A nil *AutomationIndex must not become a non-nil interface.
	var index application.Searcher
	if idx := search.NewAutomationIndex(container.GetES(), cfg.ESAutomationsIndex); idx != nil {
		index = idx
	}

	cart := application.NewCartService(rdb, automations, purchases, logger)

	return &Services{
		Auth:    application.NewAuthService(users, audit, container.GetJWT(), rdb, mail, cfg, logger),
		Profile: application.NewProfileService(users, automations, store, rdb, logger),
		Catalog: application.NewCatalogService(categories, automations, reviews, index, c, logger),
		Developer: &application.DeveloperService{
			Users:       users,
			Automations: automations,
			Categories:  categories,
			Purchases:   purchases,
			Accounts:    accounts,
			Payments:    gateway,
			Store:       store,
			Index:       index,
			Cache:       c,
			Redis:       rdb,
			Cfg:         cfg,
			Logger:      logger,
		},
		Cart:      cart,
		Favorites: &application.FavoriteService{Automations: automations, Favorites: favorites},
		Reviews: &application.ReviewService{
			Users:       users,
			Automations: automations,
			Reviews:     reviews,
			Purchases:   purchases,
			Mail:        mail,
			Cfg:         cfg,
			Logger:      logger,
		},
		Checkout: &application.CheckoutService{
			Users:       users,
			Automations: automations,
			Purchases:   purchases,
			Accounts:    accounts,
			Payments:    gateway,
			Cart:        cart,
			Store:       store,
			Redis:       rdb,
			Mail:        mail,
			Cfg:         cfg,
			Logger:      logger,
		},
		Admin: &application.AdminService{
			Users:       users,
			Automations: automations,
			Categories:  categories,
			Purchases:   purchases,
			Index:       index,
			Cache:       c,
			Redis:       rdb,
			Mail:        mail,
			Cfg:         cfg,
			Logger:      logger,
		},
		Contact: &application.ContactService{Mail: mail, Cfg: cfg, Logger: logger},
	}
}

// InitModules adds every feature module to the registry. Call once at startup,
// before RegisterAll.
func InitModules(r *Registry, svc *Services) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	jwt := container.GetJWT()

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc.Auth, logger, cfg.CookieDomain, cfg.CookieSecure), jwt))
	r.Add(modules.NewProfileModule(handlers.NewProfileHandler(svc.Profile, logger), jwt))
	r.Add(modules.NewCatalogModule(handlers.NewCatalogHandler(svc.Catalog, logger), jwt))
	r.Add(modules.NewDeveloperModule(handlers.NewDeveloperHandler(svc.Developer, logger), jwt))
	r.Add(modules.NewBuyerModule(handlers.NewBuyerHandler(svc.Cart, svc.Favorites, svc.Reviews, logger), jwt))
	r.Add(modules.NewPaymentsModule(handlers.NewCheckoutHandler(svc.Checkout, logger), jwt))
	r.Add(modules.NewAdminModule(handlers.NewAdminHandler(svc.Admin, logger), jwt))
	r.Add(modules.NewContactModule(handlers.NewContactHandler(svc.Contact, logger)))
	r.AddIf(cfg.MetricsEnabled, modules.NewMetricsModule(r.Engine))
}
