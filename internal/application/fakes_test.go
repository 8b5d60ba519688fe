package application

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/oksasatya/otomasyon-magazasi/config"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	repo "github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/payment"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/search"
	"github.com/oksasatya/otomasyon-magazasi/pkg/mailer"
)

func testConfig() *config.Config {
	return &config.Config{
		AppName:              "otomasyon-magazasi",
		FrontendURL:          "https://app.test",
		VerifyEmailURL:       "https://app.test/email-dogrula",
		ResetPasswordURL:     "https://api.test/api/auth/callback?type=recovery",
		RefreshTTL:           time.Hour,
		AccessTTL:            time.Minute,
		Currency:             "try",
		PlatformFeePercent:   15,
		StripeConnectCountry: "TR",
		SupportEmail:         "destek@example.test",
		SignedURLTTL:         15 * time.Minute,
		CompanyName:          "Otomasyon Mağazası",
	}
}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

var idSeq int

func nextID(prefix string) string {
	idSeq++
	return fmt.Sprintf("%s-%04d", prefix, idSeq)
}

// users

type fakeUsers struct {
	mu       sync.Mutex
	users    map[string]*entity.User
	profiles map[string]*entity.Profile
	prefs    map[string]*entity.NotificationPrefs
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:    map[string]*entity.User{},
		profiles: map[string]*entity.Profile{},
		prefs:    map[string]*entity.NotificationPrefs{},
	}
}

// add stores an account directly and returns its id.
func (f *fakeUsers) add(email, username string, role entity.Role) string {
	id := nextID("user")
	f.users[id] = &entity.User{ID: id, Email: email}
	f.profiles[id] = &entity.Profile{ID: id, Username: username, FullName: strings.ToUpper(username[:1]) + username[1:], Role: role}
	return id
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User, p *entity.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = nextID("user")
	}
	p.ID = u.ID
	cu, cp := *u, *p
	f.users[u.ID] = &cu
	f.profiles[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cu := *u
	return &cu, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cu := *u
			return &cu, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) SetVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) GetProfile(_ context.Context, id string) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeUsers) GetProfileByUsername(_ context.Context, username string) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) UpdateProfile(_ context.Context, p *entity.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *p
	f.profiles[p.ID] = &cp
	return nil
}

func (f *fakeUsers) SetRole(_ context.Context, id string, role entity.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.Role = role
	return nil
}

func (f *fakeUsers) PromoteDeveloper(_ context.Context, id, iban, bankName string) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	p.IBAN = iban
	p.BankName = bankName
	if p.Role == entity.RoleUser {
		p.Role = entity.RoleDeveloper
	}
	now := time.Now()
	p.DeveloperSince = &now
	cp := *p
	return &cp, nil
}

func (f *fakeUsers) ListAccounts(_ context.Context, q string, role entity.Role, limit, offset int) ([]entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Account{}
	for id, u := range f.users {
		p := f.profiles[id]
		if role != "" && p.Role != role {
			continue
		}
		if q != "" && !strings.Contains(u.Email, q) && !strings.Contains(p.Username, q) {
			continue
		}
		out = append(out, entity.Account{User: *u, Profile: *p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.ID < out[j].User.ID })
	return out, nil
}

func (f *fakeUsers) GetPrefs(_ context.Context, userID string) (*entity.NotificationPrefs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prefs[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeUsers) UpsertPrefs(_ context.Context, p *entity.NotificationPrefs) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.prefs[p.UserID] = &cp
	return nil
}

type fakeAudit struct {
	mu   sync.Mutex
	logs []entity.AuditLog
}

func (f *fakeAudit) Insert(_ context.Context, l entity.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.logs))
	for _, l := range f.logs {
		out = append(out, l.Action)
	}
	return out
}

// mail

type sentMail struct {
	To   string
	Data map[string]any
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	jobs []mailer.EmailJob
}

func (f *fakeMailer) Enqueue(_ context.Context, to string, data map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Data: data})
	return nil
}

func (f *fakeMailer) EnqueueJob(_ context.Context, job mailer.EmailJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

// types returns the template types sent to a recipient, in order.
func (f *fakeMailer) types(to string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		if m.To == to {
			out = append(out, fmt.Sprint(m.Data["Type"]))
		}
	}
	return out
}

// catalog

type fakeAutomations struct {
	mu        sync.Mutex
	items     map[string]*entity.Automation
	refreshed []string
}

func newFakeAutomations() *fakeAutomations {
	return &fakeAutomations{items: map[string]*entity.Automation{}}
}

func (f *fakeAutomations) put(a entity.Automation) *entity.Automation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == "" {
		a.ID = nextID("auto")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	ca := a
	f.items[a.ID] = &ca
	return &ca
}

func (f *fakeAutomations) Create(_ context.Context, a *entity.Automation) error {
	a.ID = nextID("auto")
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.put(*a)
	return nil
}

func (f *fakeAutomations) Update(_ context.Context, a *entity.Automation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[a.ID]; !ok {
		return repo.ErrNotFound
	}
	ca := *a
	ca.Status = entity.StatusPending
	f.items[a.ID] = &ca
	return nil
}

func (f *fakeAutomations) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeAutomations) GetByID(_ context.Context, id string) (*entity.Automation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	ca := *a
	return &ca, nil
}

func (f *fakeAutomations) GetBySlug(_ context.Context, slug string) (*entity.Automation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.items {
		if a.Slug == slug {
			ca := *a
			return &ca, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeAutomations) SlugExists(_ context.Context, slug, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.items {
		if a.Slug == slug && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAutomations) sorted(keep func(*entity.Automation) bool) []entity.Automation {
	out := []entity.Automation{}
	for _, a := range f.items {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f *fakeAutomations) List(_ context.Context, flt repo.AutomationFilter) ([]entity.Automation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sorted(func(a *entity.Automation) bool {
		if !a.Listed() {
			return false
		}
		if flt.DeveloperID != "" && a.DeveloperID != flt.DeveloperID {
			return false
		}
		if flt.Query != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(flt.Query)) {
			return false
		}
		if flt.After != nil {
			if a.CreatedAt.After(flt.After.CreatedAt) || (a.CreatedAt.Equal(flt.After.CreatedAt) && a.ID >= flt.After.ID) {
				return false
			}
		}
		return true
	})
	if flt.Offset > 0 {
		if flt.Offset >= len(out) {
			return []entity.Automation{}, nil
		}
		out = out[flt.Offset:]
	}
	if flt.Limit > 0 && len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (f *fakeAutomations) ListByDeveloper(_ context.Context, developerID string) ([]entity.Automation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(a *entity.Automation) bool { return a.DeveloperID == developerID }), nil
}

func (f *fakeAutomations) ListByStatus(_ context.Context, status entity.AutomationStatus, limit, offset int) ([]entity.Automation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(a *entity.Automation) bool { return status == "" || a.Status == status }), nil
}

func (f *fakeAutomations) ListByIDs(_ context.Context, ids []string) ([]entity.Automation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return f.sorted(func(a *entity.Automation) bool { return want[a.ID] }), nil
}

func (f *fakeAutomations) SetStatus(_ context.Context, id string, status entity.AutomationStatus, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.Status = status
	a.RejectionReason = reason
	if status == entity.StatusApproved {
		now := time.Now()
		a.ApprovedAt = &now
	}
	return nil
}

func (f *fakeAutomations) SetFilePath(_ context.Context, id, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.FilePath = path
	return nil
}

func (f *fakeAutomations) SetImageURL(_ context.Context, id, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.ImageURL = url
	return nil
}

func (f *fakeAutomations) RefreshRating(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, id)
	return nil
}

type fakeCategories struct {
	items map[string]*entity.Category
	lists int
}

func newFakeCategories(cs ...entity.Category) *fakeCategories {
	f := &fakeCategories{items: map[string]*entity.Category{}}
	for i := range cs {
		c := cs[i]
		f.items[c.ID] = &c
	}
	return f
}

func (f *fakeCategories) List(context.Context) ([]entity.Category, error) {
	f.lists++
	out := []entity.Category{}
	for _, c := range f.items {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (f *fakeCategories) GetByID(_ context.Context, id string) (*entity.Category, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (f *fakeCategories) GetBySlug(_ context.Context, slug string) (*entity.Category, error) {
	for _, c := range f.items {
		if c.Slug == slug {
			cc := *c
			return &cc, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeCategories) Create(_ context.Context, c *entity.Category) error {
	c.ID = nextID("cat")
	cc := *c
	f.items[c.ID] = &cc
	return nil
}

func (f *fakeCategories) Update(_ context.Context, c *entity.Category) error {
	if _, ok := f.items[c.ID]; !ok {
		return repo.ErrNotFound
	}
	cc := *c
	f.items[c.ID] = &cc
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeReviews struct {
	items []entity.Review
}

func (f *fakeReviews) Upsert(_ context.Context, r *entity.Review) error {
	for i := range f.items {
		if f.items[i].AutomationID == r.AutomationID && f.items[i].UserID == r.UserID {
			r.ID = f.items[i].ID
			f.items[i] = *r
			return nil
		}
	}
	r.ID = nextID("review")
	f.items = append(f.items, *r)
	return nil
}

func (f *fakeReviews) ListByAutomation(_ context.Context, automationID string, limit, offset int) ([]entity.Review, error) {
	out := []entity.Review{}
	for _, r := range f.items {
		if r.AutomationID == automationID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeFavorites struct {
	set   map[string]bool
	autos *fakeAutomations
}

func (f *fakeFavorites) Toggle(_ context.Context, userID, automationID string) (bool, error) {
	k := userID + "/" + automationID
	if f.set[k] {
		delete(f.set, k)
		return false, nil
	}
	f.set[k] = true
	return true, nil
}

func (f *fakeFavorites) List(ctx context.Context, userID string) ([]entity.Automation, error) {
	var ids []string
	for k := range f.set {
		if u, id, _ := strings.Cut(k, "/"); u == userID {
			ids = append(ids, id)
		}
	}
	return f.autos.ListByIDs(ctx, ids)
}

// purchases

type fakePurchases struct {
	mu    sync.Mutex
	items map[string]*entity.Purchase
	autos *fakeAutomations
}

func newFakePurchases(autos *fakeAutomations) *fakePurchases {
	return &fakePurchases{items: map[string]*entity.Purchase{}, autos: autos}
}

func (f *fakePurchases) Create(_ context.Context, p *entity.Purchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = nextID("purchase")
	p.CreatedAt = time.Now()
	cp := *p
	f.items[p.ID] = &cp
	return nil
}

func (f *fakePurchases) withJoins(p *entity.Purchase) *entity.Purchase {
	cp := *p
	if f.autos != nil {
		if a, ok := f.autos.items[p.AutomationID]; ok {
			cp.AutomationTitle = a.Title
			cp.AutomationSlug = a.Slug
		}
	}
	return &cp
}

func (f *fakePurchases) GetByID(_ context.Context, id string) (*entity.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return f.withJoins(p), nil
}

func (f *fakePurchases) GetByPaymentIntent(_ context.Context, intentID string) (*entity.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.PaymentIntentID != nil && *p.PaymentIntentID == intentID {
			return f.withJoins(p), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakePurchases) FindPending(_ context.Context, buyerID, automationID string) (*entity.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.BuyerID == buyerID && p.AutomationID == automationID && p.Status == entity.PurchasePending {
			return f.withJoins(p), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakePurchases) HasCompleted(_ context.Context, buyerID, automationID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.BuyerID == buyerID && p.AutomationID == automationID && p.Status == entity.PurchaseCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePurchases) SetPaymentIntent(_ context.Context, id, intentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.PaymentIntentID = &intentID
	return nil
}

func (f *fakePurchases) Complete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || (p.Status != entity.PurchasePending && p.Status != entity.PurchaseExpired) {
		return false, nil
	}
	for _, o := range f.items {
		if o.BuyerID == p.BuyerID && o.AutomationID == p.AutomationID && o.Status == entity.PurchaseCompleted {
			return false, nil
		}
	}
	now := time.Now()
	p.Status = entity.PurchaseCompleted
	p.CompletedAt = &now
	if a, ok := f.autos.items[p.AutomationID]; ok {
		a.TotalSales++
	}
	return true, nil
}

func (f *fakePurchases) Transition(_ context.Context, id string, to entity.PurchaseStatus, from ...entity.PurchaseStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if p.Status == s {
			p.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePurchases) ExpirePending(_ context.Context, olderThan time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, p := range f.items {
		if p.Status == entity.PurchasePending && p.CreatedAt.Before(olderThan) {
			p.Status = entity.PurchaseExpired
			intent := ""
			if p.PaymentIntentID != nil {
				intent = *p.PaymentIntentID
			}
			out = append(out, intent)
		}
	}
	return out, nil
}

func (f *fakePurchases) ListByBuyer(_ context.Context, buyerID string) ([]entity.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Purchase{}
	for _, p := range f.items {
		if p.BuyerID == buyerID && (p.Status == entity.PurchaseCompleted || p.Status == entity.PurchaseRefunded) {
			out = append(out, *f.withJoins(p))
		}
	}
	return out, nil
}

func (f *fakePurchases) ListSales(_ context.Context, developerID string) ([]entity.Purchase, entity.SalesSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Purchase{}
	var sum entity.SalesSummary
	for _, p := range f.items {
		if p.DeveloperID == developerID && p.Status == entity.PurchaseCompleted {
			out = append(out, *p)
			sum.Count++
			sum.GrossCents += p.AmountCents
			sum.FeeCents += p.PlatformFeeCents
		}
	}
	sum.NetCents = sum.GrossCents - sum.FeeCents
	return out, sum, nil
}

func (f *fakePurchases) Stats(context.Context) (entity.PlatformStats, error) {
	return entity.PlatformStats{CompletedPurchases: len(f.items)}, nil
}

func (f *fakePurchases) status(id string) entity.PurchaseStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].Status
}

type fakeAccounts struct {
	items map[string]*entity.StripeAccount
}

func newFakeAccounts(accts ...entity.StripeAccount) *fakeAccounts {
	f := &fakeAccounts{items: map[string]*entity.StripeAccount{}}
	for i := range accts {
		a := accts[i]
		f.items[a.UserID] = &a
	}
	return f
}

func (f *fakeAccounts) Get(_ context.Context, userID string) (*entity.StripeAccount, error) {
	a, ok := f.items[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	ca := *a
	return &ca, nil
}

func (f *fakeAccounts) Upsert(_ context.Context, a *entity.StripeAccount) error {
	ca := *a
	f.items[a.UserID] = &ca
	return nil
}

func (f *fakeAccounts) UpdateFlags(_ context.Context, a *entity.StripeAccount) error {
	for _, cur := range f.items {
		if cur.AccountID == a.AccountID {
			cur.ChargesEnabled = a.ChargesEnabled
			cur.PayoutsEnabled = a.PayoutsEnabled
			cur.DetailsSubmitted = a.DetailsSubmitted
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeAccounts) ListIncomplete(_ context.Context, limit int) ([]entity.StripeAccount, error) {
	out := []entity.StripeAccount{}
	for _, a := range f.items {
		if !a.ChargesEnabled || !a.PayoutsEnabled {
			out = append(out, *a)
		}
	}
	return out, nil
}

// infrastructure doubles

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreatePaymentIntent(ctx context.Context, in payment.IntentInput) (*payment.Intent, error) {
	args := m.Called(ctx, in)
	intent, _ := args.Get(0).(*payment.Intent)
	return intent, args.Error(1)
}

func (m *mockGateway) CancelPaymentIntent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockGateway) CreateExpressAccount(ctx context.Context, email, country string) (string, error) {
	args := m.Called(ctx, email, country)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	args := m.Called(ctx, accountID, refreshURL, returnURL)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) GetAccount(ctx context.Context, accountID string) (*payment.AccountStatus, error) {
	args := m.Called(ctx, accountID)
	st, _ := args.Get(0).(*payment.AccountStatus)
	return st, args.Error(1)
}

func (m *mockGateway) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(*payment.Event)
	return ev, args.Error(1)
}

type fakeStore struct {
	uploads map[string]string
	deleted []string
	err     error
}

func newFakeStore() *fakeStore { return &fakeStore{uploads: map[string]string{}} }

func (f *fakeStore) Upload(_ context.Context, objectPath, contentType string, r io.Reader) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	b, _ := io.ReadAll(r)
	f.uploads[objectPath] = contentType
	return int64(len(b)), nil
}

func (f *fakeStore) Delete(_ context.Context, objectPath string) error {
	f.deleted = append(f.deleted, objectPath)
	return nil
}

func (f *fakeStore) SignedURL(objectPath, downloadName string, ttl time.Duration) (string, error) {
	return "https://storage.test/" + objectPath + "?name=" + downloadName, nil
}

func (f *fakeStore) PublicURL(objectPath string) string {
	return "https://storage.test/" + objectPath
}

type fakeIndex struct {
	enabled bool
	hits    []search.Hit
	err     error
	indexed []string
	deleted []string
}

func (f *fakeIndex) Enabled() bool { return f.enabled }

func (f *fakeIndex) Index(_ context.Context, a *entity.Automation) error {
	f.indexed = append(f.indexed, a.ID)
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int) ([]search.Hit, error) {
	return f.hits, f.err
}
