// Package courseprice schedules and prices weekly courses sold with a fixed
// number of sessions.
//
// For a course variation it answers how many sessions remain on a date,
// when the course ends and what a customer who joins late owes. Course
// configuration is read from a host catalog through a store.Store; the
// calculations themselves are pure date and money arithmetic.
//
// # Quick Start
//
//	st, err := sqlite.Open("catalog.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	eng := courseprice.New(st)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
//	price, err := eng.CalculatePrice(ctx, productID, variationID, eng.Today())
//
// # Metadata
//
// Each product or variation carries raw string metadata. Variation values
// override product values key by key:
//
//	_course_start_date      2024-01-01
//	_course_total_sessions  10
//	_course_session_rate    20.00
//	_course_weekday         Monday (or lundi, Montag, 1, ...)
//	_course_holidays        2024-01-08,2024-02-12
//	_price / _regular_price 200.00
//
// Missing values fall back to documented defaults. Only a malformed date is
// an error (ValidationError wrapping ErrInvalidDate).
//
// # Pricing
//
// A course with no sessions, or priced before its start date, costs its base
// price and reports the guard that fired. Otherwise the price is the session
// rate times the remaining sessions, or the base price scaled by
// remaining/total when no rate is set.
//
// # Caching
//
// Prices are memoized by canonical id, content signature and as-of date.
// Translated copies of a course share one canonical id. Use Engine.Scope to
// bound the memo to one request or batch job; Stats exposes hit, computation
// and guard counters.
package courseprice
