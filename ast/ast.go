// Package ast declares the types used to represent parsed Beancount ledgers.
//
// The directive set is closed: every directive implements an unexported method,
// so code outside this package can switch over the concrete kinds knowing the
// list is complete. Only transactions take part in forecast expansion, all other
// kinds flow through unchanged.
package ast

import (
	"golang.org/x/exp/slices"
)

// Directives is a slice of Directive that implements sort.Interface.
type Directives []Directive

func (d Directives) Len() int           { return len(d) }
func (d Directives) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }
func (d Directives) Less(i, j int) bool { return compareDirectives(d[i], d[j]) < 0 }

// compareDirectives compares two directives by their date, then by type priority.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
//
// For same-date directives, the processing order is:
//  1. Open (accounts must be opened before use)
//  2. All other directives (transactions, balance, pad, etc.)
//  3. Close (an account is usable on the day it closes)
func compareDirectives(a, b Directive) int {
	if a.date().Before(b.date().Time) {
		return -1
	} else if a.date().After(b.date().Time) {
		return 1
	}

	aPriority := directiveTypePriority(a)
	bPriority := directiveTypePriority(b)
	if aPriority < bPriority {
		return -1
	} else if aPriority > bPriority {
		return 1
	}

	return 0
}

// directiveTypePriority returns the processing priority for a directive type.
// Lower numbers are processed first.
func directiveTypePriority(d Directive) int {
	switch d.(type) {
	case *Open:
		return 0
	case *Close:
		return 2
	default:
		return 1
	}
}

// AST represents a parsed Beancount file containing directives, options, includes,
// and other top-level elements.
type AST struct {
	Directives Directives
	Options    []*Option
	Includes   []*Include
	Plugins    []*Plugin
	Pushtags   []*Pushtag
	Poptags    []*Poptag
	Pushmetas  []*Pushmeta
	Popmetas   []*Popmeta
}

// Option returns the first value of the named option, or "" if it is not set.
func (a *AST) Option(name string) string {
	for _, opt := range a.Options {
		if opt.Name == name {
			return opt.Value
		}
	}
	return ""
}

// HasPlugin reports whether a plugin with the given module name is declared.
func (a *AST) HasPlugin(name string) bool {
	for _, p := range a.Plugins {
		if p.Name == name {
			return true
		}
	}
	return false
}

// WithMetadata is an interface for AST nodes that can have metadata attached.
type WithMetadata interface {
	AddMetadata(...*Metadata)
}

// withMetadata is an embeddable struct that implements WithMetadata.
type withMetadata struct {
	Metadata []*Metadata
}

func (w *withMetadata) AddMetadata(m ...*Metadata) {
	w.Metadata = append(w.Metadata, m...)
}

// Meta returns the first metadata entry with the given key, or nil.
func (w *withMetadata) Meta(key string) *Metadata {
	for _, m := range w.Metadata {
		if m.Key == key {
			return m
		}
	}
	return nil
}

// Directive is the interface implemented by all Beancount directive types.
type Directive interface {
	WithMetadata

	date() *Date
	Position() Position
	Directive() string
}

// DateOf returns the date of any directive.
func DateOf(d Directive) *Date {
	return d.date()
}

// positionedItem represents any AST item that has a position in the source file.
type positionedItem struct {
	pos       Position
	directive Directive
	pushtag   *Pushtag
	poptag    *Poptag
	pushmeta  *Pushmeta
	popmeta   *Popmeta
}

// ApplyPushPopDirectives applies pushtag/poptag and pushmeta/popmeta directives
// to transactions and other directives in file order (before date sorting).
func ApplyPushPopDirectives(ast *AST) error {
	var items []positionedItem

	for i := range ast.Directives {
		items = append(items, positionedItem{
			pos:       ast.Directives[i].Position(),
			directive: ast.Directives[i],
		})
	}

	for _, pt := range ast.Pushtags {
		items = append(items, positionedItem{pos: pt.Pos, pushtag: pt})
	}

	for _, pt := range ast.Poptags {
		items = append(items, positionedItem{pos: pt.Pos, poptag: pt})
	}

	for _, pm := range ast.Pushmetas {
		items = append(items, positionedItem{pos: pm.Pos, pushmeta: pm})
	}

	for _, pm := range ast.Popmetas {
		items = append(items, positionedItem{pos: pm.Pos, popmeta: pm})
	}

	slices.SortStableFunc(items, func(a, b positionedItem) int {
		return a.pos.Offset - b.pos.Offset
	})

	var activeTags []Tag
	var activeKeys []string
	activeMetadata := make(map[string]*Metadata)

	for _, item := range items {
		switch {
		case item.pushtag != nil:
			activeTags = append(activeTags, item.pushtag.Tag)

		case item.poptag != nil:
			for i, tag := range activeTags {
				if tag == item.poptag.Tag {
					activeTags = append(activeTags[:i], activeTags[i+1:]...)
					break
				}
			}

		case item.pushmeta != nil:
			if _, ok := activeMetadata[item.pushmeta.Key]; !ok {
				activeKeys = append(activeKeys, item.pushmeta.Key)
			}
			activeMetadata[item.pushmeta.Key] = &Metadata{
				Key:    item.pushmeta.Key,
				Value:  item.pushmeta.Value,
				Quoted: item.pushmeta.Quoted,
			}

		case item.popmeta != nil:
			delete(activeMetadata, item.popmeta.Key)
			activeKeys = slices.DeleteFunc(activeKeys, func(k string) bool { return k == item.popmeta.Key })

		case item.directive != nil:
			if txn, ok := item.directive.(*Transaction); ok {
				txn.Tags = append(txn.Tags, activeTags...)
			}

			for _, key := range activeKeys {
				m := *activeMetadata[key]
				item.directive.AddMetadata(&m)
			}
		}
	}

	return nil
}

// isSorted checks if directives are already sorted by date.
func isSorted(d Directives) bool {
	for i := 1; i < len(d); i++ {
		if d.Less(i, i-1) {
			return false
		}
	}
	return true
}

// SortDirectives sorts all directives by date. The sort is stable, so directives
// sharing a date keep their relative order.
//
// This is called automatically by the parser, but can be called on a manually constructed AST.
func SortDirectives(ast *AST) error {
	if isSorted(ast.Directives) {
		return nil
	}

	slices.SortStableFunc(ast.Directives, compareDirectives)
	return nil
}

// SortByDate sorts directives by date alone, keeping the input order of
// every directive that shares a date regardless of its kind.
func SortByDate(d Directives) {
	slices.SortStableFunc(d, func(a, b Directive) int {
		return a.date().Compare(b.date().Time)
	})
}

// SortStable sorts a slice of directives by date in place, keeping the relative
// order of directives that compare equal.
func SortStable(d Directives) {
	if isSorted(d) {
		return
	}
	slices.SortStableFunc(d, compareDirectives)
}
