package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/aiox-platform/shopassist/internal/cart"
	"github.com/aiox-platform/shopassist/internal/catalog"
	"github.com/aiox-platform/shopassist/internal/conversation"
	"github.com/aiox-platform/shopassist/internal/nats"
)

var testCatalog = []catalog.Product{
	{ID: 101, Name: "Black Casual Shirt", Price: 29.99, Stock: 5, Color: "black", Style: "casual", Category: "shirt"},
	{ID: 102, Name: "White Formal Shirt", Price: 49.5, Stock: 3, Color: "white", Style: "formal", Category: "shirt"},
	{ID: 103, Name: "Blue Casual Jeans", Price: 59, Stock: 8, Color: "blue", Style: "casual", Category: "pants"},
	{ID: 205, Name: "Red Evening Dress", Price: 120, Stock: 1, Color: "red", Style: "elegant", Category: "dress"},
	{ID: 300, Name: "Sold Out Sneakers", Price: 80, Stock: 0, Color: "white", Style: "sport", Category: "shoes"},
}

type fakeCatalog struct {
	mu        sync.Mutex
	products  []catalog.Product
	searchErr error
	searches  []catalog.Criteria
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{products: testCatalog}
}

func (f *fakeCatalog) Search(_ context.Context, c catalog.Criteria) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, c)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []catalog.Product
	for _, p := range f.products {
		if !p.InStock() {
			continue
		}
		if c.Category != "" && p.Category != c.Category {
			continue
		}
		if c.Style != "" && !strings.EqualFold(p.Style, c.Style) {
			continue
		}
		if c.Color != "" && !strings.EqualFold(p.Color, c.Color) {
			continue
		}
		if c.PriceRange != nil && !c.PriceRange.Contains(p.Price) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id int64) (*catalog.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeCart struct {
	mu      sync.Mutex
	items   map[string][]cart.Item
	added   []int64
	removed []int64
	err     error
}

func newFakeCart() *fakeCart {
	return &fakeCart{items: map[string][]cart.Item{}}
}

func (f *fakeCart) AddItem(_ context.Context, userID string, productID int64, qty int) (*cart.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var product *catalog.Product
	for i := range testCatalog {
		if testCatalog[i].ID == productID {
			product = &testCatalog[i]
		}
	}
	if product == nil {
		return nil, cart.ErrProductNotFound
	}
	if !product.InStock() {
		return nil, cart.ErrOutOfStock
	}
	f.added = append(f.added, productID)
	for i, it := range f.items[userID] {
		if it.ProductID == productID {
			f.items[userID][i].Quantity += qty
			item := f.items[userID][i]
			return &item, nil
		}
	}
	item := cart.Item{ProductID: productID, Name: product.Name, Price: product.Price, Quantity: qty, Color: product.Color, Style: product.Style}
	f.items[userID] = append(f.items[userID], item)
	return &item, nil
}

func (f *fakeCart) RemoveItem(_ context.Context, userID string, productID int64) (*cart.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for i, it := range f.items[userID] {
		if it.ProductID == productID {
			f.items[userID] = append(f.items[userID][:i], f.items[userID][i+1:]...)
			f.removed = append(f.removed, productID)
			return &it, nil
		}
	}
	return nil, cart.ErrItemNotInCart
}

func (f *fakeCart) GetCart(_ context.Context, userID string) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c := &cart.Cart{UserID: userID, Items: append([]cart.Item{}, f.items[userID]...)}
	for _, it := range c.Items {
		c.ItemCount += it.Quantity
		c.Total += it.LineTotal()
	}
	return c, nil
}

// memContexts round-trips through JSON like the Redis store does.
type memContexts struct {
	mu      sync.Mutex
	data    map[string][]byte
	saveErr error
	loadErr error
}

func newMemContexts() *memContexts {
	return &memContexts{data: map[string][]byte{}}
}

func (m *memContexts) Load(_ context.Context, userID string) (*conversation.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	raw, ok := m.data[userID]
	if !ok {
		return conversation.NewContext(userID), nil
	}
	var c conversation.Context
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *memContexts) Save(_ context.Context, c *conversation.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	m.data[c.UserID] = raw
	return nil
}

func (m *memContexts) put(c *conversation.Context) {
	raw, _ := json.Marshal(c)
	m.data[c.UserID] = raw
}

type memHistory struct {
	mu      sync.Mutex
	records []conversation.Record
	err     error
}

func (m *memHistory) Append(_ context.Context, rec conversation.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	rec.ID = int64(len(m.records) + 1)
	m.records = append(m.records, rec)
	return nil
}

func (m *memHistory) LoadRecent(_ context.Context, userID string, limit int) ([]conversation.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []conversation.Record
	for _, r := range m.records {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	if len(mine) > limit {
		mine = mine[len(mine)-limit:]
	}
	return mine, nil
}

type fakeProvider struct {
	label      string
	confidence float64
	reply      string
	err        error
	block      bool
	calls      int
}

func (f *fakeProvider) Classify(ctx context.Context, _, _ string) (string, float64, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", 0, ctx.Err()
	}
	if f.err != nil {
		return "", 0, f.err
	}
	return f.label, f.confidence, nil
}

func (f *fakeProvider) Generate(ctx context.Context, _, _ string) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeBudget struct{ allow bool }

func (b fakeBudget) Allow(context.Context, string) bool { return b.allow }

type fakeEvents struct {
	mu     sync.Mutex
	events []nats.TurnEvent
	err    error
}

func (f *fakeEvents) PublishTurn(_ context.Context, e nats.TurnEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

// fixedClassifier always answers with the same classification.
type fixedClassifier struct {
	cls       Classification
	threshold float64
}

func (f fixedClassifier) Classify(_ context.Context, _, message string, _ *conversation.Context) Classification {
	cls := f.cls
	cls.Entities = NewExtractor().Extract(message)
	return cls
}

func (f fixedClassifier) Threshold() float64 { return f.threshold }

var errBoom = errors.New("boom")
