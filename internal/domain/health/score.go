// Package health turns a customer's engagement signals into sub-scores, a weighted
// composite and a risk tier.
package health

import (
	"time"

	"github.com/shopspring/decimal"
)

// Window is how far back login and API activity count toward the score.
const Window = 30 * 24 * time.Hour

const (
	pointsPerLogin       = 10
	pointsPerAPICall     = 10
	penaltyPerOpenTicket = 20
	maxSubScore          = 100
)

var (
	weightLogin    = decimal.RequireFromString("0.25")
	weightAdoption = decimal.RequireFromString("0.25")
	weightTicket   = decimal.RequireFromString("0.20")
	weightInvoice  = decimal.RequireFromString("0.20")
	weightAPI      = decimal.RequireFromString("0.10")
)

// Signals are the raw counts read for one customer from a single snapshot.
type Signals struct {
	LoginsInWindow   int64
	CustomerFeatures int64
	SystemFeatures   int64
	OpenTickets      int64
	InvoicesTotal    int64
	InvoicesGood     int64
	APICallsInWindow int64
}

type Scores struct {
	Login     int     `json:"logins"`
	Adoption  int     `json:"feature_adoption"`
	Ticket    int     `json:"support_tickets"`
	Invoice   int     `json:"invoices"`
	API       int     `json:"api_usage"`
	Composite float64 `json:"health_score"`
}

func Score(s Signals) Scores {
	sc := Scores{
		Login:    clampedPoints(s.LoginsInWindow, pointsPerLogin),
		Adoption: adoptionScore(s.CustomerFeatures, s.SystemFeatures),
		Ticket:   int(max(maxSubScore-s.OpenTickets*penaltyPerOpenTicket, 0)),
		Invoice:  invoiceScore(s.InvoicesGood, s.InvoicesTotal),
		API:      clampedPoints(s.APICallsInWindow, pointsPerAPICall),
	}
	sc.Composite = composite(sc)
	return sc
}

func clampedPoints(count, perUnit int64) int {
	return int(min(count*perUnit, maxSubScore))
}

func adoptionScore(used, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(min(used*100/total, maxSubScore))
}

func invoiceScore(good, total int64) int {
	if total <= 0 {
		return maxSubScore
	}
	return int(good * 100 / total)
}

func composite(sc Scores) float64 {
	sum := decimal.NewFromInt(int64(sc.Login)).Mul(weightLogin).
		Add(decimal.NewFromInt(int64(sc.Adoption)).Mul(weightAdoption)).
		Add(decimal.NewFromInt(int64(sc.Ticket)).Mul(weightTicket)).
		Add(decimal.NewFromInt(int64(sc.Invoice)).Mul(weightInvoice)).
		Add(decimal.NewFromInt(int64(sc.API)).Mul(weightAPI))
	return sum.Round(2).InexactFloat64()
}
