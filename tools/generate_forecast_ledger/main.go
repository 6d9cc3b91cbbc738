// Forecast Ledger Generator
//
// This tool generates a ledger with many recurring templates for profiling
// the forecast pass. Templates mix every interval, SKIP, UNTIL and REPEAT,
// and are spread over plain transactions so the merge has work to do.
//
// Usage:
//
//	go run main.go > forecast.beancount
//	go run main.go 5000 > forecast.beancount  # Number of templates
//	beanforecast check --telemetry forecast.beancount
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultTemplates = 1000
	horizon          = "2030-12-31"
)

var (
	accounts = []string{
		"Expenses:Food:Groceries",
		"Expenses:Food:Restaurant",
		"Expenses:Housing:Rent",
		"Expenses:Housing:Utilities",
		"Expenses:Transport:Transit",
		"Expenses:Subscriptions",
		"Expenses:Insurance",
		"Expenses:Healthcare",
		"Income:Salary",
		"Income:Interest",
	}

	payees = []string{
		"Landlord", "PG&E", "Comcast", "Netflix", "Spotify",
		"Employer Inc", "Gym", "Insurer", "Bank", "Transit Authority",
	}

	intervals = []string{"DAILY", "WEEKLY", "MONTHLY", "YEARLY"}
)

func main() {
	templates := defaultTemplates
	if len(os.Args) > 1 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil {
			templates = n
		}
	}

	writeHeader()

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	currentDate := startDate

	for i := range templates {
		fmt.Print(generateTemplate(currentDate, i))

		// Plain transactions between templates
		for range rand.Intn(3) {
			fmt.Print(generatePlainTransaction(currentDate))
		}

		currentDate = currentDate.AddDate(0, 0, rand.Intn(3))
	}

	fmt.Fprintf(os.Stderr, "\nGenerated %d templates from %s to %s\n", templates, startDate.Format("2006-01-02"), currentDate.Format("2006-01-02"))
}

func writeHeader() {
	fmt.Println("; Recurring transactions for forecast profiling")
	fmt.Println("; Generated:", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println()
	fmt.Printf("option \"forecast_horizon\" %q\n", horizon)
	fmt.Println()

	fmt.Println("2024-01-01 open Assets:Bank:Checking")
	for _, account := range accounts {
		fmt.Printf("2024-01-01 open %s\n", account)
	}
	fmt.Println()
}

// directive builds a random recurrence directive. Daily rules always carry a
// bound so the output stays manageable.
func directive() string {
	interval := intervals[rand.Intn(len(intervals))]
	parts := []string{interval}

	if rand.Intn(4) == 0 {
		parts = append(parts, fmt.Sprintf("SKIP %d TIMES", rand.Intn(3)+2))
	}

	switch n := rand.Intn(3); {
	case n == 0 || interval == "DAILY":
		parts = append(parts, fmt.Sprintf("REPEAT %d TIMES", rand.Intn(30)+2))
	case n == 1:
		until := time.Date(2025+rand.Intn(5), time.Month(rand.Intn(12)+1), rand.Intn(28)+1, 0, 0, 0, 0, time.UTC)
		parts = append(parts, "UNTIL "+until.Format("2006-01-02"))
	}

	return "[" + strings.Join(parts, " ") + "]"
}

func generateTemplate(date time.Time, i int) string {
	payee := payees[rand.Intn(len(payees))]
	account := accounts[rand.Intn(len(accounts))]
	amount := randAmount(5, 2500)
	if strings.HasPrefix(account, "Income:") {
		amount = amount.Neg()
	}

	// Every tenth template carries its rule in metadata.
	if i%10 == 9 {
		return fmt.Sprintf(`%s * "%s" "Recurring %d"
  forecast: "%s"
  %s  %s USD
  Assets:Bank:Checking

`, date.Format("2006-01-02"), payee, i, strings.Trim(directive(), "[]"), account, amount.StringFixed(2))
	}

	return fmt.Sprintf(`%s * "%s" "Recurring %d %s" #recurring
  %s  %s USD
  Assets:Bank:Checking

`, date.Format("2006-01-02"), payee, i, directive(), account, amount.StringFixed(2))
}

func generatePlainTransaction(date time.Time) string {
	amount := randAmount(1, 200)

	return fmt.Sprintf(`%s * "%s" "One-off"
  Expenses:Food:Restaurant  %s USD
  Assets:Bank:Checking  %s USD

`, date.Format("2006-01-02"), payees[rand.Intn(len(payees))], amount.StringFixed(2), amount.Neg().StringFixed(2))
}

func randAmount(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(min + rand.Float64()*(max-min)).Round(2)
}
