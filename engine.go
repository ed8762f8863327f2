package courseprice

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/xraph/courseprice/cache"
	"github.com/xraph/courseprice/course"
	"github.com/xraph/courseprice/id"
	"github.com/xraph/courseprice/meta"
	"github.com/xraph/courseprice/plugin"
	"github.com/xraph/courseprice/pricing"
	"github.com/xraph/courseprice/schedule"
	"github.com/xraph/courseprice/store"
	"github.com/xraph/courseprice/types"
)

// Engine is the course pricing facade. It builds course contexts from the
// metadata store, walks their schedule, prices them and memoizes the price
// by canonical id, content signature and as-of date.
//
// An Engine is safe for concurrent use. With Config.SharedCache the memo
// lives as long as the Engine; use Scope for a memo bound to one request
// or batch job.
type Engine struct {
	store    store.Store
	repo     *meta.Repository
	pricing  *pricing.Calculator
	cache    *cache.PriceCache // nil when nothing is memoized
	stats    *cache.Stats
	plugins  *plugin.Registry
	logger   *slog.Logger
	config   Config
	location *time.Location
	now      func() time.Time
	stopped  *atomic.Bool

	// Set for engines returned by Scope.
	scopeID id.ID

	resolver meta.CanonicalResolver
	weekdays *schedule.WeekdayTable
}

// New creates a new Engine over a metadata store.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		stats:   cache.NewStats(),
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		config:  DefaultConfig(),
		now:     time.Now,
		stopped: new(atomic.Bool),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.plugins.WithTimeout(e.config.PluginTimeout)
	e.location = e.config.Location()

	weekdays := e.weekdays
	if weekdays == nil {
		weekdays = schedule.DefaultWeekdayTable()
	}

	e.repo = meta.NewRepository(s,
		meta.WithLogger(e.logger),
		meta.WithCanonicalResolver(e.resolver),
		meta.WithDefaultLanguage(e.config.DefaultLanguage),
		meta.WithWeekdayTable(weekdays),
		meta.WithCurrency(e.config.Currency),
		meta.WithSiblingWarming(e.config.WarmSiblings),
	)
	e.pricing = pricing.NewCalculator(
		schedule.NewCalculator(
			schedule.WithWindowFactor(e.config.WindowFactor),
			schedule.WithWeekdayTable(weekdays),
		),
		pricing.WithLogger(e.logger),
	)
	if e.config.SharedCache {
		e.cache = cache.New()
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithConfig replaces the configuration. Zero numeric and string fields
// keep their defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg.withDefaults()
	}
}

// WithCanonicalResolver overrides canonical id resolution. Without it the
// engine follows translation links to Config.DefaultLanguage.
func WithCanonicalResolver(fn meta.CanonicalResolver) Option {
	return func(e *Engine) {
		e.resolver = fn
	}
}

// WithWeekdayTable replaces the weekday label table.
func WithWeekdayTable(t *schedule.WeekdayTable) Option {
	return func(e *Engine) {
		e.weekdays = t
	}
}

// WithClock sets the time source used by Today.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("courseprice started",
		"currency", e.config.Currency,
		"window_factor", e.config.WindowFactor,
		"shared_cache", e.config.SharedCache,
		"default_language", e.config.DefaultLanguage,
		"plugins", e.plugins.Count(),
	)
	return nil
}

// Stop shuts down plugins and closes the store. Calculations after Stop
// fail with ErrEngineStopped. Stop on a scope is a no-op.
func (e *Engine) Stop() error {
	if !e.scopeID.IsNil() {
		return nil
	}
	if e.stopped.Swap(true) {
		return nil
	}

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Scope returns an Engine with its own price memo and object memo. Stats,
// plugins and configuration are shared with e. Drop the scope when the
// request or batch job ends.
func (e *Engine) Scope() *Engine {
	s := *e
	s.scopeID = id.NewScopeID()
	s.cache = cache.New()
	s.repo = e.repo.Scope()
	s.logger = e.logger.With("scope_id", s.scopeID.String())
	return &s
}

// ScopeID returns the scope identifier, or the nil ID for a root engine.
func (e *Engine) ScopeID() id.ID { return e.scopeID }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.config }

// Store returns the metadata store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Today returns the current date in the configured timezone.
func (e *Engine) Today() types.Date {
	return types.DateOf(e.now().In(e.location))
}

// ──────────────────────────────────────────────────
// Calculations
// ──────────────────────────────────────────────────

// CalcOption tunes one calculation.
type CalcOption func(*calcOptions)

type calcOptions struct {
	basePrice *types.Money
	hint      pricing.Hint
}

// WithBasePrice supplies a base price the caller already knows. A
// different base price is a different content signature and never shares
// a memoized price.
func WithBasePrice(price types.Money) CalcOption {
	return func(o *calcOptions) {
		o.basePrice = &price
	}
}

// WithRemainingHint passes a remaining-sessions value the caller computed
// earlier. It is checked against the schedule and never used in its place.
func WithRemainingHint(n int) CalcOption {
	return func(o *calcOptions) {
		o.hint = pricing.RemainingHint(n)
	}
}

// CalculatePrice returns what a customer owes on asOf for a course
// variation (or a simple product when variationID is empty). Repeated
// calls with the same canonical id, content and date are served from the
// memo.
func (e *Engine) CalculatePrice(ctx context.Context, productID, variationID string, asOf types.Date, opts ...CalcOption) (types.Money, error) {
	co := applyCalcOptions(opts)
	cc, err := e.build(ctx, productID, variationID, co)
	if err != nil {
		return types.Money{}, err
	}

	if e.cache == nil {
		return e.compute(ctx, cc, asOf, co.hint).Price, nil
	}

	key := cacheKey(cc, asOf)
	price, hit, err := e.cache.GetOrCompute(key, func() (types.Money, error) {
		return e.compute(ctx, cc, asOf, co.hint).Price, nil
	})
	if err != nil {
		return types.Money{}, err
	}
	if hit {
		e.stats.RecordHit(cc.CanonicalID())
		e.plugins.EmitCacheHit(ctx, cc.CanonicalID(), asOf)
		e.logger.DebugContext(ctx, "price cache hit",
			"canonical_id", cc.CanonicalID(),
			"key", key.String(),
		)
		// The memoized computation checked its own caller's hint only.
		if computed, mismatch := e.pricing.CheckHint(ctx, cc, asOf, co.hint); mismatch {
			e.plugins.EmitHintMismatch(ctx, cc.CanonicalID(), co.hint.Remaining, computed)
		}
	}
	return price, nil
}

// CalculateRemainingSessions returns the sessions left on asOf.
func (e *Engine) CalculateRemainingSessions(ctx context.Context, productID, variationID string, asOf types.Date) (int, error) {
	cc, err := e.build(ctx, productID, variationID, calcOptions{})
	if err != nil {
		return 0, err
	}
	return e.pricing.Schedule().RemainingSessions(cc, asOf), nil
}

// CalculateTotalSessions returns the number of sessions the calendar walk
// finds, which is below the configured count only when the search window
// runs out.
func (e *Engine) CalculateTotalSessions(ctx context.Context, productID, variationID string) (int, error) {
	cc, err := e.build(ctx, productID, variationID, calcOptions{})
	if err != nil {
		return 0, err
	}
	return e.pricing.Schedule().TotalSessions(cc), nil
}

// CalculateEndDate returns the date of the last session. The zero Date
// means the end cannot be projected (no start date or weekday).
func (e *Engine) CalculateEndDate(ctx context.Context, productID, variationID string) (types.Date, error) {
	cc, err := e.build(ctx, productID, variationID, calcOptions{})
	if err != nil {
		return types.Date{}, err
	}
	return e.pricing.Schedule().EndDate(cc), nil
}

// Quote is every output of one calculation.
type Quote struct {
	ID                id.ID          `json:"id"`
	ProductID         string         `json:"product_id"`
	VariationID       string         `json:"variation_id,omitempty"`
	CanonicalID       string         `json:"canonical_id"`
	AsOf              types.Date     `json:"as_of"`
	Price             types.Money    `json:"price"`
	Guard             pricing.Guard  `json:"guard"`
	Method            pricing.Method `json:"method"`
	RemainingSessions int            `json:"remaining_sessions"`
	TotalSessions     int            `json:"total_sessions"`
	EndDate           types.Date     `json:"end_date"`
	HintMismatch      bool           `json:"hint_mismatch,omitempty"`
}

// Quote computes the price together with the schedule facts behind it.
// It always recomputes, since the memo holds prices only, and stores the
// price so later CalculatePrice calls hit.
func (e *Engine) Quote(ctx context.Context, productID, variationID string, asOf types.Date, opts ...CalcOption) (*Quote, error) {
	co := applyCalcOptions(opts)
	cc, err := e.build(ctx, productID, variationID, co)
	if err != nil {
		return nil, err
	}

	res := e.compute(ctx, cc, asOf, co.hint)
	if e.cache != nil {
		e.cache.Set(cacheKey(cc, asOf), res.Price)
	}

	return &Quote{
		ID:                id.NewQuoteID(),
		ProductID:         cc.ProductID(),
		VariationID:       cc.VariationID(),
		CanonicalID:       cc.CanonicalID(),
		AsOf:              asOf,
		Price:             res.Price,
		Guard:             res.Guard,
		Method:            res.Method,
		RemainingSessions: res.Remaining,
		TotalSessions:     res.Total,
		EndDate:           e.pricing.Schedule().EndDate(cc),
		HintMismatch:      res.HintMismatch,
	}, nil
}

// ──────────────────────────────────────────────────
// Instrumentation
// ──────────────────────────────────────────────────

// Stats returns a snapshot of the cache hit, computation and guard counters.
func (e *Engine) Stats() Stats { return e.stats.Snapshot() }

// ResetStats zeroes the counters.
func (e *Engine) ResetStats() { e.stats.Reset() }

// ClearCache drops every memoized price of this engine or scope.
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func applyCalcOptions(opts []CalcOption) calcOptions {
	var co calcOptions
	for _, opt := range opts {
		opt(&co)
	}
	return co
}

func cacheKey(cc course.Context, asOf types.Date) cache.Key {
	return cache.Key{CanonicalID: cc.CanonicalID(), Signature: cc.Signature(), AsOf: asOf}
}

func (e *Engine) build(ctx context.Context, productID, variationID string, co calcOptions) (course.Context, error) {
	if e.stopped.Load() {
		return course.Context{}, ErrEngineStopped
	}
	if productID == "" && variationID == "" {
		return course.Context{}, ErrMissingProductID
	}

	var bopts []meta.BuildOption
	if co.basePrice != nil {
		bopts = append(bopts, meta.WithBasePrice(*co.basePrice))
	}

	cc, err := e.repo.Build(ctx, productID, variationID, bopts...)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			e.plugins.EmitValidationFailed(ctx, ve.ObjectID, err)
		}
		return course.Context{}, err
	}
	return cc, nil
}

// compute runs the pricing calculator and records the outcome.
func (e *Engine) compute(ctx context.Context, cc course.Context, asOf types.Date, hint pricing.Hint) pricing.Result {
	start := time.Now()
	res := e.pricing.Calculate(ctx, cc, asOf, hint)
	elapsed := time.Since(start)

	e.stats.RecordComputation()
	if res.Guard.Fired() {
		e.stats.RecordGuard(string(res.Guard))
		e.plugins.EmitGuardTriggered(ctx, cc.CanonicalID(), res.Guard)
	}
	if res.HintMismatch {
		e.plugins.EmitHintMismatch(ctx, cc.CanonicalID(), hint.Remaining, res.Remaining)
	}
	e.plugins.EmitPriceComputed(ctx, plugin.PriceComputed{
		ProductID:   cc.ProductID(),
		VariationID: cc.VariationID(),
		CanonicalID: cc.CanonicalID(),
		AsOf:        asOf,
		Result:      res,
		Elapsed:     elapsed,
	})

	e.logger.DebugContext(ctx, "price computed",
		"canonical_id", cc.CanonicalID(),
		"as_of", asOf.String(),
		"price", res.Price.String(),
		"method", string(res.Method),
		"guard", string(res.Guard),
		"remaining", res.Remaining,
	)
	return res
}
