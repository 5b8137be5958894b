// Package domain contains the core data types for the library lending engine.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import "time"

// Item is a catalog entry with a finite, shared quantity available for loan.
// Code is the immutable business key; AvailableQty is mutated exclusively by
// the loan engine (issue decrements, return increments) and never drops below
// zero. An inactive item cannot receive new loans but keeps its history.
type Item struct {
	Code         string    `json:"code"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	AvailableQty int       `json:"available_qty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasStock reports whether the item currently has at least qty loanable units.
// This is an advisory read; the conditional decrement in the repo is the
// authoritative guard under concurrency.
func (i Item) HasStock(qty int) bool {
	return i.AvailableQty >= qty
}
