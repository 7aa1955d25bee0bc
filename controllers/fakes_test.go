package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	middleware "github.com/phillip/donation-portal-go/middleware"
	models "github.com/phillip/donation-portal-go/models"
	services "github.com/phillip/donation-portal-go/services"
	store "github.com/phillip/donation-portal-go/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore is an in-memory stand-in for *store.Store. Updates only understand the
// handful of fields the handlers set.
type fakeStore struct {
	mu            sync.Mutex
	receipts      []models.Receipt
	subs          map[primitive.ObjectID]*models.Subscription
	payments      []models.Payment
	statuses      map[primitive.ObjectID]*models.Status
	uses          map[primitive.ObjectID][]time.Time
	categories    []models.Category
	campaigns     map[primitive.ObjectID]*models.Campaign
	boxes         []models.Box
	users         map[string]*models.User
	updateCalls   []bson.M
	statusLoads   int
	categoryLoads int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		subs:      map[primitive.ObjectID]*models.Subscription{},
		statuses:  map[primitive.ObjectID]*models.Status{},
		uses:      map[primitive.ObjectID][]time.Time{},
		campaigns: map[primitive.ObjectID]*models.Campaign{},
		users:     map[string]*models.User{},
	}
}

// receipts

func (f *fakeStore) CreateReceipt(ctx context.Context, r *models.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = primitive.NewObjectID()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	f.receipts = append(f.receipts, *r)
	return nil
}

func (f *fakeStore) GetReceipt(ctx context.Context, id primitive.ObjectID) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.receipts {
		if f.receipts[i].ID == id {
			r := f.receipts[i]
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListReceipts(ctx context.Context, phone string, page, limit int) ([]models.Receipt, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Receipt
	for _, r := range f.receipts {
		if phone == "" || r.Phone == phone {
			matched = append(matched, r)
		}
	}
	total := int64(len(matched))
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]models.Receipt{}, matched[start:end]...), total, nil
}

func (f *fakeStore) ReceiptTotals(ctx context.Context, phone string) (models.ReceiptTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var t models.ReceiptTotals
	for _, r := range f.receipts {
		if (phone == "" || r.Phone == phone) && r.Status == models.ReceiptCompleted {
			t.TotalAmount += r.Amount
			t.TotalDonations++
		}
	}
	return t, nil
}

func (f *fakeStore) UpdateReceipt(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.receipts {
		if f.receipts[i].ID != id {
			continue
		}
		if v, ok := update["status"].(string); ok {
			f.receipts[i].Status = v
		}
		if v, ok := update["razorpay_payment_id"].(string); ok {
			f.receipts[i].RazorpayPaymentID = v
		}
		r := f.receipts[i]
		return &r, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) DeleteReceipt(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.receipts {
		if f.receipts[i].ID == id {
			f.receipts = append(f.receipts[:i], f.receipts[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) MarkCampaignCredited(ctx context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.receipts {
		r := &f.receipts[i]
		if r.ID == id && r.Status == models.ReceiptCompleted && !r.CampaignCredited {
			r.CampaignCredited = true
			return true, nil
		}
	}
	return false, nil
}

// subscriptions

func (f *fakeStore) ListSubscriptions(ctx context.Context, phone string) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Subscription{}
	for _, s := range f.subs {
		if phone == "" || s.Phone == phone {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (f *fakeStore) GetSubscription(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub.ID = primitive.NewObjectID()
	cp := *sub
	f.subs[sub.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateSubscription(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, update)
	s, ok := f.subs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if v, ok := update["status"].(string); ok {
		s.Status = v
	}
	if v, ok := update["last_payment_date"].(time.Time); ok {
		s.LastPaymentDate = &v
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID()
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakeStore) DeletePayment(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.payments {
		if f.payments[i].ID == id {
			f.payments = append(f.payments[:i], f.payments[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ListPayments(ctx context.Context, subscriptionID primitive.ObjectID) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Payment{}
	for _, p := range f.payments {
		if p.SubscriptionID == subscriptionID {
			out = append(out, p)
		}
	}
	return out, nil
}

// statuses and categories

func (f *fakeStore) ListStatuses(ctx context.Context) ([]models.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusLoads++
	out := []models.Status{}
	for _, s := range f.statuses {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (f *fakeStore) GetStatus(ctx context.Context, id primitive.ObjectID) (*models.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.statuses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) CreateStatus(ctx context.Context, st *models.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st.ID = primitive.NewObjectID()
	cp := *st
	f.statuses[st.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.statuses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if v, ok := update["content"].(string); ok {
		s.Content = v
	}
	if v, ok := update["featured"].(bool); ok {
		s.Featured = v
	}
	if v, ok := update["type"].(string); ok {
		s.Type = v
	}
	if v, ok := update["media_url"].(string); ok {
		s.MediaURL = v
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) DeleteStatus(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.statuses[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.statuses, id)
	return nil
}

func (f *fakeStore) RecordStatusUse(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.statuses[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	s.UsageCount++
	f.uses[id] = append(f.uses[id], at)
	return s.UsageCount, nil
}

func (f *fakeStore) StatusUsesSince(ctx context.Context, id primitive.ObjectID, since time.Time) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []time.Time
	for _, t := range f.uses[id] {
		if !t.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categoryLoads++
	return append([]models.Category{}, f.categories...), nil
}

func (f *fakeStore) CreateCategory(ctx context.Context, c *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	f.categories = append(f.categories, *c)
	return nil
}

func (f *fakeStore) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.categories {
		if c.ID == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// campaigns

func (f *fakeStore) ListCampaigns(ctx context.Context, q string) ([]models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Campaign{}
	for _, c := range f.campaigns {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (f *fakeStore) GetCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.UpdatedAt = time.Now()
	cp := *c
	f.campaigns[c.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateCampaign(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if v, ok := update["title"].(string); ok {
		c.Title = v
	}
	if v, ok := update["status"].(string); ok {
		c.Status = v
	}
	if v, ok := update["images"].([]string); ok {
		c.Images = v
	}
	c.UpdatedAt = c.UpdatedAt.Add(time.Second)
	cp := *c
	return &cp, nil
}

func (f *fakeStore) AddCampaignCollection(ctx context.Context, id primitive.ObjectID, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return store.ErrNotFound
	}
	c.CollectedAmount += amount
	return nil
}

func (f *fakeStore) DeleteCampaign(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.campaigns[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.campaigns, id)
	return nil
}

// boxes and users

func (f *fakeStore) FindBoxByPhone(ctx context.Context, phone string) (*models.Box, error) {
	for _, b := range f.boxes {
		if b.Phone == phone {
			cp := b
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetBox(ctx context.Context, id primitive.ObjectID) (*models.Box, error) {
	for _, b := range f.boxes {
		if b.ID == id {
			cp := b
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

type recordedEvent struct {
	key  string
	body any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{key: routingKey, body: body})
	return nil
}

func (p *fakePublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.key)
	}
	return out
}

type fakeMedia struct {
	uploaded []string
	deleted  []string
}

func (m *fakeMedia) Upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	url := "https://res.cloudinary.com/demo/image/upload/v1/" + folder + "/" + primitive.NewObjectID().Hex() + ".jpg"
	m.uploaded = append(m.uploaded, url)
	return url, nil
}

func (m *fakeMedia) Delete(ctx context.Context, mediaURL string) error {
	m.deleted = append(m.deleted, mediaURL)
	return nil
}

func newTestEnv(fs *fakeStore) (*Env, *fakePublisher) {
	pub := &fakePublisher{}
	return &Env{
		Statuses:      fs,
		Categories:    fs,
		Receipts:      fs,
		Subscriptions: fs,
		Boxes:         fs,
		Campaigns:     fs,
		Users:         fs,
		Catalog:       services.NewCatalogCache(fs),
		Media:         &fakeMedia{},
		Events:        pub,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, pub
}

// as stands in for AuthMiddleware by placing an identity on the context.
func as(role, phone string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role != "" {
			c.Set(middleware.KeyRole, role)
		}
		if phone != "" {
			c.Set(middleware.KeyPhone, phone)
		}
		c.Next()
	}
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}
