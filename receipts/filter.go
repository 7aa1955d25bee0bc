// Package receipts holds the receipt filter engine shared by the receipts API and the
// donor-side client, and the client itself.
package receipts

import (
	"strconv"
	"strings"
	"time"

	models "github.com/phillip/donation-portal-go/models"
)

type Tab string

const (
	TabAll       Tab = "all"
	TabCompleted Tab = "completed"
	TabPending   Tab = "pending"
)

// ParseTab maps a tab name to a Tab. Anything unrecognised is TabAll.
func ParseTab(s string) Tab {
	switch Tab(strings.ToLower(strings.TrimSpace(s))) {
	case TabCompleted:
		return TabCompleted
	case TabPending:
		return TabPending
	default:
		return TabAll
	}
}

// Criteria carries filter values exactly as they arrive from a form or query string.
type Criteria struct {
	Search    string `form:"search" json:"search"`
	Date      string `form:"date" json:"date"` // YYYY-MM-DD
	Type      string `form:"type" json:"type"`
	Status    string `form:"status" json:"status"`
	MinAmount string `form:"minAmount" json:"minAmount"`
	MaxAmount string `form:"maxAmount" json:"maxAmount"`
}

func (c Criteria) IsEmpty() bool {
	return strings.TrimSpace(c.Search) == "" &&
		strings.TrimSpace(c.Date) == "" &&
		strings.TrimSpace(c.Type) == "" &&
		strings.TrimSpace(c.Status) == "" &&
		strings.TrimSpace(c.MinAmount) == "" &&
		strings.TrimSpace(c.MaxAmount) == ""
}

// compiled is Criteria with every value parsed once. Unparseable values stay unset.
type compiled struct {
	search   string
	day      string
	hasDay   bool
	typ      string
	status   string
	min, max float64
	hasMin   bool
	hasMax   bool
}

func compile(c Criteria) compiled {
	out := compiled{
		search: strings.ToLower(strings.TrimSpace(c.Search)),
		typ:    strings.ToLower(strings.TrimSpace(c.Type)),
		status: strings.TrimSpace(c.Status),
	}
	if d := strings.TrimSpace(c.Date); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			out.day = t.Format("2006-01-02")
			out.hasDay = true
		}
	}
	if v, ok := parseAmount(c.MinAmount); ok {
		out.min, out.hasMin = v, true
	}
	if v, ok := parseAmount(c.MaxAmount); ok {
		out.max, out.hasMax = v, true
	}
	return out
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Apply returns the receipts that pass the tab and every set criterion, in their
// original order. With TabAll and empty criteria the input slice is returned as is.
func Apply(list []models.Receipt, tab Tab, c Criteria) []models.Receipt {
	tab = ParseTab(string(tab))
	if tab == TabAll && c.IsEmpty() {
		return list
	}

	f := compile(c)
	out := make([]models.Receipt, 0, len(list))
	for _, r := range list {
		if matches(r, tab, f) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r models.Receipt, tab Tab, f compiled) bool {
	switch tab {
	case TabCompleted:
		if r.Status != models.ReceiptCompleted {
			return false
		}
	case TabPending:
		if r.Status != models.ReceiptPending {
			return false
		}
	}

	if f.search != "" {
		id := ""
		if !r.ID.IsZero() {
			id = r.ID.Hex()
		}
		if !containsFold(r.Type, f.search) &&
			!containsFold(id, f.search) &&
			!containsFold(r.RazorpayOrderID, f.search) {
			return false
		}
	}

	if f.hasDay && r.CreatedAt.UTC().Format("2006-01-02") != f.day {
		return false
	}

	if f.typ != "" && !containsFold(r.Type, f.typ) {
		return false
	}

	if f.status != "" && r.Status != f.status {
		return false
	}

	if f.hasMin && r.Amount < f.min {
		return false
	}
	if f.hasMax && r.Amount > f.max {
		return false
	}

	return true
}

// containsFold reports whether lowered needle occurs in s, ignoring case.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}
