package profile

import "testing"

func TestGoalProgress(t *testing.T) {
	cases := []struct {
		name string
		p    Profile
		want float64
	}{
		{"partial", Profile{RetirementSavings: 312000, RetirementGoal: 1200000}, 26},
		{"rounded", Profile{RetirementSavings: 1, RetirementGoal: 3}, 33.3},
		{"overshoot clamps", Profile{RetirementSavings: 2000, RetirementGoal: 1000}, 100},
		{"zero goal", Profile{RetirementSavings: 2000}, 0},
		{"negative savings", Profile{RetirementSavings: -5, RetirementGoal: 100}, 0},
	}

	for _, tc := range cases {
		if got := tc.p.GoalProgress(); got != tc.want {
			t.Fatalf("%s: GoalProgress() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMemoryStoreFindByID(t *testing.T) {
	store := NewMemoryStore(Seed())

	got, ok := store.FindByID(DefaultID)
	if !ok {
		t.Fatalf("expected default profile %s to be seeded", DefaultID)
	}
	if got.Greeting == "" {
		t.Fatal("expected default profile to carry a greeting")
	}

	if _, ok := store.FindByID("missing"); ok {
		t.Fatal("expected lookup of unknown profile to fail")
	}
}

func TestMemoryStoreListIsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())
	list := store.List()
	list[0].Name = "changed"

	if store.List()[0].Name == "changed" {
		t.Fatal("List must not expose the backing slice")
	}
}
