// Package autoaccounts inserts open directives for accounts that are used
// without ever being opened, like Beancount's auto_accounts plugin. It runs
// on the expanded ledger so accounts that only appear in forecast
// transactions are covered too.
//
// It also reports postings on closed accounts, which happens when a
// recurring template keeps producing occurrences past an account's close date.
package autoaccounts

import (
	"fmt"

	"github.com/robinvdvleuten/beancount-forecast/ast"
)

// PluginName is the plugin line that enables the pass in a ledger.
const PluginName = "beancount.plugins.auto_accounts"

// MetadataKey marks generated open directives.
const MetadataKey = "auto_accounts"

// Insert returns entries with an open directive added, on the day of first
// use, for each account referenced but never opened. The added directives
// are also returned, in account first-use order.
func Insert(entries ast.Directives) (ast.Directives, []*ast.Open) {
	opened := make(map[ast.Account]bool)
	firstUse := make(map[ast.Account]*ast.Date)
	var order []ast.Account

	use := func(account ast.Account, date *ast.Date) {
		if account == "" || date == nil {
			return
		}
		if first, ok := firstUse[account]; ok {
			if date.Before(first.Time) {
				firstUse[account] = date
			}
			return
		}
		firstUse[account] = date
		order = append(order, account)
	}

	for _, entry := range entries {
		date := ast.DateOf(entry)
		if open, ok := entry.(*ast.Open); ok {
			opened[open.Account] = true
			continue
		}
		for _, account := range Referenced(entry) {
			use(account, date)
		}
	}

	var added []*ast.Open
	for _, account := range order {
		if opened[account] {
			continue
		}
		open := ast.NewOpen(firstUse[account], account, nil, "")
		open.AddMetadata(ast.NewRawMetadata(MetadataKey, "TRUE"))
		added = append(added, open)
	}

	if len(added) == 0 {
		return entries, nil
	}

	out := make(ast.Directives, 0, len(entries)+len(added))
	out = append(out, entries...)
	for _, open := range added {
		out = append(out, open)
	}
	ast.SortStable(out)

	return out, added
}

// Referenced returns the accounts a directive refers to, excluding the
// account an open directive declares.
func Referenced(entry ast.Directive) []ast.Account {
	switch d := entry.(type) {
	case *ast.Transaction:
		accounts := make([]ast.Account, 0, len(d.Postings))
		for _, p := range d.Postings {
			accounts = append(accounts, p.Account)
		}
		return accounts
	case *ast.Balance:
		return []ast.Account{d.Account}
	case *ast.Pad:
		return []ast.Account{d.Account, d.AccountPad}
	case *ast.Note:
		return []ast.Account{d.Account}
	case *ast.Document:
		return []ast.Account{d.Account}
	case *ast.Close:
		return []ast.Account{d.Account}
	case *ast.Custom:
		var accounts []ast.Account
		for _, v := range d.Values {
			if v.Account != nil {
				accounts = append(accounts, *v.Account)
			}
		}
		return accounts
	case *ast.Open, *ast.Commodity, *ast.Price, *ast.Event:
		return nil
	default:
		panic(fmt.Sprintf("unhandled directive type %T", entry))
	}
}

// ClosedAccountError is reported when a transaction posts to an account after
// its close date.
type ClosedAccountError struct {
	Account    ast.Account
	Date       *ast.Date
	ClosedDate *ast.Date
	Pos        ast.Position
	Directive  ast.Directive
}

func (e *ClosedAccountError) Error() string {
	location := fmt.Sprintf("%s:%d", e.Pos.Filename, e.Pos.Line)
	if e.Pos.Filename == "" {
		location = e.Date.String()
	}

	return fmt.Sprintf("%s: Account %s is used on %s but closed on %s",
		location, e.Account, e.Date, e.ClosedDate)
}

func (e *ClosedAccountError) GetPosition() ast.Position {
	return e.Pos
}

func (e *ClosedAccountError) GetDirective() ast.Directive {
	return e.Directive
}

// CheckClosed reports transactions that post to an account after the day it
// was closed. Posting on the close date itself is allowed.
func CheckClosed(entries ast.Directives) []error {
	closed := make(map[ast.Account]*ast.Date)
	for _, entry := range entries {
		if c, ok := entry.(*ast.Close); ok {
			closed[c.Account] = c.Date
		}
	}
	if len(closed) == 0 {
		return nil
	}

	var errs []error
	for _, entry := range entries {
		txn, ok := entry.(*ast.Transaction)
		if !ok {
			continue
		}
		for _, p := range txn.Postings {
			closedOn, ok := closed[p.Account]
			if !ok || !txn.Date.After(closedOn.Time) {
				continue
			}
			errs = append(errs, &ClosedAccountError{
				Account:    p.Account,
				Date:       txn.Date,
				ClosedDate: closedOn,
				Pos:        txn.Pos,
				Directive:  txn,
			})
		}
	}

	return errs
}
