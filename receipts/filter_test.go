package receipts

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/donation-portal-go/models"
)

func sampleReceipts() []models.Receipt {
	day := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	return []models.Receipt{
		{ID: primitive.NewObjectID(), Amount: 200, Status: "Completed", Type: "General", RazorpayOrderID: "order_AAA111", CreatedAt: day("2024-03-01T10:00:00Z")},
		{ID: primitive.NewObjectID(), Amount: 600, Status: "Pending", Type: "Building", RazorpayOrderID: "order_BBB222", CreatedAt: day("2024-03-02T23:30:00Z")},
		{ID: primitive.NewObjectID(), Amount: 100, Status: "Completed", Type: "Campaign", CreatedAt: day("2024-03-02T08:00:00Z")},
		{ID: primitive.NewObjectID(), Amount: 500, Status: "Pending", Type: "General", CreatedAt: day("2024-03-03T12:00:00Z")},
		{ID: primitive.NewObjectID(), Amount: 1500, Status: "Completed", Type: "Institute", CreatedAt: day("2024-03-04T12:00:00Z")},
	}
}

func TestApplyEmptyCriteriaReturnsInput(t *testing.T) {
	in := sampleReceipts()
	got := Apply(in, TabAll, Criteria{})
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("expected input unchanged, got %+v", got)
	}

	got = Apply(in, "", Criteria{MinAmount: "  "})
	if !reflect.DeepEqual(got, in) {
		t.Fatal("expected blank criteria to be a no-op")
	}
}

func TestApplyTabs(t *testing.T) {
	in := sampleReceipts()

	tests := []struct {
		tab  Tab
		want string
		n    int
	}{
		{tab: TabCompleted, want: "Completed", n: 3},
		{tab: TabPending, want: "Pending", n: 2},
		{tab: "COMPLETED", want: "Completed", n: 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.tab), func(t *testing.T) {
			got := Apply(in, tt.tab, Criteria{})
			if len(got) != tt.n {
				t.Fatalf("expected %d receipts, got %d", tt.n, len(got))
			}
			for _, r := range got {
				if r.Status != tt.want {
					t.Fatalf("expected only %q receipts, got %q", tt.want, r.Status)
				}
			}
		})
	}

	if got := Apply(in, "archived", Criteria{}); len(got) != len(in) {
		t.Fatalf("expected unknown tab to behave as all, got %d", len(got))
	}
}

func TestApplySearchIsCaseInsensitive(t *testing.T) {
	in := sampleReceipts()

	got := Apply(in, TabAll, Criteria{Search: "GEN"})
	if len(got) != 2 {
		t.Fatalf("expected 2 General receipts, got %d", len(got))
	}
	for _, r := range got {
		if r.Type != "General" {
			t.Fatalf("unexpected match %q", r.Type)
		}
	}

	got = Apply(in, TabAll, Criteria{Search: "bbb222"})
	if len(got) != 1 || got[0].RazorpayOrderID != "order_BBB222" {
		t.Fatalf("expected order id match, got %+v", got)
	}

	id := in[4].ID.Hex()
	got = Apply(in, TabAll, Criteria{Search: id[len(id)-8:]})
	if len(got) != 1 || got[0].ID != in[4].ID {
		t.Fatalf("expected id substring match, got %+v", got)
	}
}

func TestApplyDateMatchesCalendarDay(t *testing.T) {
	in := sampleReceipts()

	got := Apply(in, TabAll, Criteria{Date: "2024-03-02"})
	if len(got) != 2 {
		t.Fatalf("expected 2 receipts on 2024-03-02, got %d", len(got))
	}

	got = Apply(in, TabAll, Criteria{Date: "not-a-date"})
	if len(got) != len(in) {
		t.Fatal("expected unparseable date to be ignored")
	}
}

func TestApplyAmountRange(t *testing.T) {
	in := sampleReceipts()

	got := Apply(in, TabAll, Criteria{MinAmount: "100", MaxAmount: "500"})
	if len(got) != 3 {
		t.Fatalf("expected 3 receipts in [100,500], got %d", len(got))
	}
	for _, r := range got {
		if r.Amount < 100 || r.Amount > 500 {
			t.Fatalf("amount %v outside range", r.Amount)
		}
	}

	got = Apply(in, TabAll, Criteria{MinAmount: "abc"})
	if len(got) != len(in) {
		t.Fatalf("expected non-numeric min to be ignored, got %d", len(got))
	}

	got = Apply(in, TabAll, Criteria{MinAmount: "abc", MaxAmount: "500"})
	if len(got) != 3 {
		t.Fatalf("expected only the max bound to apply, got %d", len(got))
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	in := sampleReceipts()
	got := Apply(in, TabCompleted, Criteria{})
	want := []primitive.ObjectID{in[0].ID, in[2].ID, in[4].ID}
	for i, r := range got {
		if r.ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i].Hex(), r.ID.Hex())
		}
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	in := sampleReceipts()
	criteria := []Criteria{
		{Search: "gen"},
		{Type: "build", MinAmount: "300"},
		{Status: "Completed", MaxAmount: "1000"},
		{Date: "2024-03-02", Search: "order"},
	}
	for _, c := range criteria {
		once := Apply(in, TabAll, c)
		twice := Apply(once, TabAll, c)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("filter not idempotent for %+v", c)
		}
	}
}

func TestApplyExampleScenario(t *testing.T) {
	in := []models.Receipt{
		{Amount: 200, Status: "Completed", Type: "General"},
		{Amount: 600, Status: "Pending", Type: "Building"},
	}

	got := Apply(in, TabAll, Criteria{Status: "Completed"})
	if len(got) != 1 || got[0].Amount != 200 {
		t.Fatalf("expected only the completed receipt, got %+v", got)
	}

	got = Apply(in, TabAll, Criteria{MinAmount: "300"})
	if len(got) != 1 || got[0].Amount != 600 {
		t.Fatalf("expected only the 600 receipt, got %+v", got)
	}
}
