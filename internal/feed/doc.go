// Package feed implements the recommendation and pagination engine behind
// the swipe feed.
//
// Pipeline fetches raw records for a cursor and recommendation context and
// enriches them ("fetch next batch"). State is an explicit value describing
// the client-side buffer, liked and disliked collections, pagination cursor
// and in-flight flag; all transitions on it are pure. Manager owns a State,
// reacts to swipe and reload events, and keeps the buffer above a low
// watermark with at most one fetch in flight.
package feed
