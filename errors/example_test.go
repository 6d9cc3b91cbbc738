package errors_test

import (
	"fmt"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/autoaccounts"
	"github.com/robinvdvleuten/beancount-forecast/errors"
	"github.com/robinvdvleuten/beancount-forecast/formatter"
)

func ExampleTextFormatter() {
	txn := ast.NewTransaction(ast.MustDate("2024-03-01"), "Coffee",
		ast.WithPosition(ast.Position{Filename: "main.beancount", Line: 10, Column: 1}),
		ast.WithPostings(
			ast.NewPosting("Expenses:Coffee", ast.WithAmount("3.50", "USD")),
			ast.NewPosting("Assets:Cash"),
		),
	)
	err := &autoaccounts.ClosedAccountError{
		Account:    "Assets:Cash",
		Date:       txn.Date,
		ClosedDate: ast.MustDate("2024-02-01"),
		Pos:        txn.Pos,
		Directive:  txn,
	}

	tf := errors.NewTextFormatter(formatter.New(formatter.WithCurrencyColumn(1)))
	fmt.Print(tf.Format(err))
	// Output:
	// main.beancount:10: Account Assets:Cash is used on 2024-03-01 but closed on 2024-02-01
	//
	//    2024-03-01 * "Coffee"
	//      Expenses:Coffee  3.50 USD
	//      Assets:Cash
}

func ExampleJSONFormatter() {
	err := &autoaccounts.ClosedAccountError{
		Account:    "Assets:Cash",
		Date:       ast.MustDate("2024-03-01"),
		ClosedDate: ast.MustDate("2024-02-01"),
		Pos:        ast.Position{Filename: "main.beancount", Line: 10, Column: 1},
	}

	fmt.Println(errors.NewJSONFormatter().Format(err))
	// Output:
	// {"type":"validation","kind":"closed-account","message":"main.beancount:10: Account Assets:Cash is used on 2024-03-01 but closed on 2024-02-01","position":{"filename":"main.beancount","line":10,"column":1},"details":{"account":"Assets:Cash","closed_date":"2024-02-01","date":"2024-03-01"}}
}
