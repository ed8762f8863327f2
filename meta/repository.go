// Package meta assembles course contexts from the raw metadata of a host
// catalog: a product and, optionally, one of its variations.
package meta

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/xraph/courseprice/course"
	"github.com/xraph/courseprice/schedule"
	"github.com/xraph/courseprice/store"
	"github.com/xraph/courseprice/types"
)

// Repository reads raw metadata from a store.Store and builds course
// contexts. Missing objects and missing keys produce defaults; only a
// malformed date is an error.
type Repository struct {
	store        store.Store
	weekdays     *schedule.WeekdayTable
	resolve      CanonicalResolver
	language     string
	currency     string
	warmSiblings bool
	logger       *slog.Logger

	// memo holds objects fetched within one scope. Nil on an unscoped
	// repository, which never reuses objects between Build calls.
	memo *objectMemo
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// WithCanonicalResolver sets how canonical ids are resolved. It takes
// precedence over WithDefaultLanguage. The default is IdentityResolver.
func WithCanonicalResolver(fn CanonicalResolver) Option {
	return func(r *Repository) {
		if fn != nil {
			r.resolve = fn
		}
	}
}

// WithDefaultLanguage resolves canonical ids to the translation in
// language, reading objects through the scope memo.
func WithDefaultLanguage(language string) Option {
	return func(r *Repository) {
		r.language = language
	}
}

// WithWeekdayTable sets the table used to resolve weekday labels.
func WithWeekdayTable(t *schedule.WeekdayTable) Option {
	return func(r *Repository) {
		if t != nil {
			r.weekdays = t
		}
	}
}

// WithCurrency sets the currency used when an object carries none.
func WithCurrency(currency string) Option {
	return func(r *Repository) {
		if currency != "" {
			r.currency = strings.ToLower(currency)
		}
	}
}

// WithSiblingWarming makes Build load the product together with all its
// variations in one pass, so pricing several variations of one product
// within a scope costs one batch of reads.
func WithSiblingWarming(enabled bool) Option {
	return func(r *Repository) {
		r.warmSiblings = enabled
	}
}

// NewRepository creates a Repository over st.
func NewRepository(st store.Store, opts ...Option) *Repository {
	r := &Repository{
		store:    st,
		weekdays: schedule.DefaultWeekdayTable(),
		currency: "usd",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scope returns a Repository sharing r's configuration with a fresh object
// memo. Objects read through the scope are reused until it is dropped.
func (r *Repository) Scope() *Repository {
	c := *r
	c.memo = newObjectMemo()
	return &c
}

// Store returns the underlying metadata store.
func (r *Repository) Store() store.Store { return r.store }

// BuildOption tunes one Build call.
type BuildOption func(*buildOptions)

type buildOptions struct {
	basePrice *types.Money
}

// WithBasePrice supplies a base price the caller already knows, skipping
// the price lookup.
func WithBasePrice(price types.Money) BuildOption {
	return func(o *buildOptions) {
		o.basePrice = &price
	}
}

// Build returns the course context for productID and variationID. Either
// id may be empty; variation values override product values key by key.
func (r *Repository) Build(ctx context.Context, productID, variationID string, opts ...BuildOption) (course.Context, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	product, variation, err := r.load(ctx, productID, variationID)
	if err != nil {
		return course.Context{}, err
	}
	if productID == "" && variation != nil {
		productID = variation.ParentID
	}

	objectID := variationID
	if objectID == "" {
		objectID = productID
	}
	get := func(key string) string {
		return cmp.Or(own(variation, key), own(product, key))
	}

	currency := r.currency
	if c := get(course.MetaCurrency); c != "" {
		currency = strings.ToLower(c)
	}

	p := course.Params{
		ProductID:    productID,
		VariationID:  variationID,
		CanonicalID:  r.canonicalID(ctx, objectID),
		WeekdayLabel: get(course.MetaWeekday),
	}
	p.Weekday = r.weekdays.Lookup(p.WeekdayLabel)

	if bo.basePrice != nil {
		p.BasePrice = *bo.basePrice
	} else {
		// The variation's own keys win over anything on the product.
		raw := cmp.Or(
			own(variation, course.MetaPrice),
			own(variation, course.MetaRegularPrice),
			own(product, course.MetaPrice),
			own(product, course.MetaRegularPrice),
		)
		p.BasePrice = r.money(ctx, objectID, course.MetaPrice, raw, currency)
	}
	p.SessionRate = r.money(ctx, objectID, course.MetaSessionRate, get(course.MetaSessionRate), currency)

	total, ok := parseSessions(get(course.MetaTotalSessions))
	if !ok {
		r.logger.WarnContext(ctx, "ignoring malformed total sessions",
			"object_id", objectID,
			"value", get(course.MetaTotalSessions),
			"max", schedule.MaxSessions,
		)
	}
	p.TotalSessions = total

	if raw := get(course.MetaStartDate); raw != "" {
		d, err := types.ParseDate(raw)
		if err != nil {
			return course.Context{}, &ValidationError{ObjectID: objectID, Field: course.MetaStartDate, Value: raw, Err: err}
		}
		p.StartDate = d
	}

	holidays, bad, err := parseHolidays(get(course.MetaHolidays))
	if err != nil {
		return course.Context{}, &ValidationError{ObjectID: objectID, Field: course.MetaHolidays, Value: bad, Err: err}
	}
	p.Holidays = holidays

	cc := course.New(p)
	r.logger.DebugContext(ctx, "course context built",
		"product_id", productID,
		"variation_id", variationID,
		"canonical_id", cc.CanonicalID(),
		"signature", cc.Signature(),
	)
	return cc, nil
}

func (r *Repository) canonicalID(ctx context.Context, objectID string) string {
	switch {
	case r.resolve != nil:
		return r.resolve(ctx, objectID)
	case r.language == "":
		return objectID
	case r.memo != nil:
		return resolveTranslation(ctx, memoReader{store: r.store, memo: r.memo}, r.language, objectID)
	default:
		return resolveTranslation(ctx, r.store, r.language, objectID)
	}
}

func own(o *course.Object, key string) string {
	return strings.TrimSpace(o.Get(key))
}

func (r *Repository) money(ctx context.Context, objectID, field, raw, currency string) types.Money {
	m, err := types.ParseMoney(raw, currency)
	if err != nil {
		r.logger.WarnContext(ctx, "ignoring malformed amount",
			"object_id", objectID,
			"field", field,
			"value", raw,
		)
		return types.Zero(currency)
	}
	return m.FloorZero()
}

// load fetches the product and variation, either from the scope memo or
// the store. Unknown objects come back nil.
func (r *Repository) load(ctx context.Context, productID, variationID string) (product, variation *course.Object, err error) {
	memo := r.memo
	if memo == nil {
		memo = newObjectMemo()
	}

	var want []string
	for _, objectID := range []string{productID, variationID} {
		if objectID != "" && !memo.has(objectID) {
			want = append(want, objectID)
		}
	}

	if len(want) > 0 {
		found, err := r.store.GetObjects(ctx, want)
		if err != nil {
			return nil, nil, fmt.Errorf("courseprice: load metadata: %w", err)
		}
		for _, objectID := range want {
			memo.put(objectID, found[objectID])
		}
	}

	parentID := productID
	if parentID == "" {
		if v := memo.get(variationID); v != nil {
			parentID = v.ParentID
			if parentID != "" && !memo.has(parentID) {
				o, err := r.store.GetObject(ctx, parentID)
				if err != nil && !store.IsNotFound(err) {
					return nil, nil, fmt.Errorf("courseprice: load parent: %w", err)
				}
				memo.put(parentID, o)
			}
		}
	}

	if r.warmSiblings && r.memo != nil && parentID != "" && memo.markWarmed(parentID) {
		children, err := r.store.ListChildren(ctx, parentID)
		if err != nil {
			r.logger.WarnContext(ctx, "sibling warm failed", "product_id", parentID, "error", err)
		} else {
			for _, c := range children {
				memo.put(c.ID, c)
			}
			r.logger.DebugContext(ctx, "warmed sibling variations", "product_id", parentID, "count", len(children))
		}
	}

	return memo.get(parentID), memo.get(variationID), nil
}

// ──────────────────────────────────────────────────
// Object memo
// ──────────────────────────────────────────────────

type objectMemo struct {
	mu           sync.RWMutex
	objects      map[string]*course.Object
	warmed       map[string]struct{}
	translations map[string]string
}

func newObjectMemo() *objectMemo {
	return &objectMemo{
		objects:      make(map[string]*course.Object),
		warmed:       make(map[string]struct{}),
		translations: make(map[string]string),
	}
}

func (m *objectMemo) has(objectID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectID]
	return ok
}

// get returns nil for unknown ids and for ids known to be missing.
func (m *objectMemo) get(objectID string) *course.Object {
	if objectID == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[objectID]
}

// put records o under objectID; a nil o records a known-missing object.
func (m *objectMemo) put(objectID string, o *course.Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectID] = o
}

// markWarmed reports whether parentID was not warmed before, and marks it.
func (m *objectMemo) markWarmed(parentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.warmed[parentID]; ok {
		return false
	}
	m.warmed[parentID] = struct{}{}
	return true
}

// translation returns the recorded translation id of sourceID in
// language. An empty id records a known-missing translation.
func (m *objectMemo) translation(sourceID, language string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	translationID, ok := m.translations[sourceID+"\x00"+strings.ToLower(language)]
	return translationID, ok
}

func (m *objectMemo) putTranslation(sourceID, language, translationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.translations[sourceID+"\x00"+strings.ToLower(language)] = translationID
}

// size is used by tests.
func (m *objectMemo) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
