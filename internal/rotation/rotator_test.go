package rotation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	return path
}

func batchHandles(r *Rotator) []string {
	var out []string
	for _, acc := range r.NextBatch() {
		out = append(out, acc.Handle)
	}
	return out
}

func TestCycleCoversRoster(t *testing.T) {
	t.Parallel()

	roster := writeRoster(t, "alpha:Alpha\nbeta:Beta\ngamma:Gamma\n")
	statePath := filepath.Join(t.TempDir(), "rotation_state.json")
	r := New(roster, statePath, "unknown-tier", nil) // batch size 2

	first := batchHandles(r)
	second := batchHandles(r)
	third := batchHandles(r)

	if len(first) != 2 || first[0] != "alpha" || first[1] != "beta" {
		t.Fatalf("first batch = %v", first)
	}
	if len(second) != 1 || second[0] != "gamma" {
		t.Fatalf("second batch = %v", second)
	}
	if len(third) != 2 || third[0] != "alpha" {
		t.Fatalf("third batch should wrap, got %v", third)
	}
}

func TestSmallRosterSkipsState(t *testing.T) {
	t.Parallel()

	roster := writeRoster(t, "alpha:Alpha\n")
	statePath := filepath.Join(t.TempDir(), "rotation_state.json")
	r := New(roster, statePath, "basic", nil)

	batch := r.NextBatch()
	if len(batch) != 1 || batch[0].Handle != "alpha" {
		t.Fatalf("batch = %v", batch)
	}
	if _, err := os.Stat(statePath); !os.IsNotExist(err) {
		t.Fatal("cursor file should not be written when the whole roster fits one run")
	}
}

func TestMissingRosterFallsBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := New(filepath.Join(dir, "no-such-roster.txt"), filepath.Join(dir, "state.json"), "basic", nil)

	batch := r.NextBatch()
	if len(batch) != 2 {
		t.Fatalf("expected built-in roster, got %v", batch)
	}
	if batch[0].Handle != "DecagonAI" || batch[0].Company != "Decagon" {
		t.Fatalf("unexpected fallback account %+v", batch[0])
	}
}

func TestBatchSizeForTier(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"free":       1,
		"FREE":       1,
		"basic":      5,
		"pro":        25,
		"enterprise": 2,
		"":           2,
	}
	for tier, want := range cases {
		if got := batchSizeForTier(tier); got != want {
			t.Fatalf("batchSizeForTier(%q) = %d, want %d", tier, got, want)
		}
	}
}

func TestStaleCursorSelfHeals(t *testing.T) {
	t.Parallel()

	roster := writeRoster(t, "alpha\nbeta\ngamma\n")
	statePath := filepath.Join(t.TempDir(), "rotation_state.json")
	stale, _ := json.Marshal(state{LastIndex: 8, TotalAccounts: 9})
	if err := os.WriteFile(statePath, stale, 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}

	r := New(roster, statePath, "", nil)

	if batch := r.NextBatch(); len(batch) != 0 {
		t.Fatalf("stale cursor should yield an empty batch, got %v", batch)
	}
	if got := batchHandles(r); len(got) != 2 || got[0] != "alpha" {
		t.Fatalf("cursor should reset to the start, got %v", got)
	}
}

func TestCorruptStateStartsOver(t *testing.T) {
	t.Parallel()

	roster := writeRoster(t, "alpha\nbeta\ngamma\n")
	statePath := filepath.Join(t.TempDir(), "rotation_state.json")
	if err := os.WriteFile(statePath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}

	r := New(roster, statePath, "", nil)
	if got := batchHandles(r); len(got) != 2 || got[0] != "alpha" {
		t.Fatalf("corrupt state should reset the cursor, got %v", got)
	}
}

func TestStateSnapshot(t *testing.T) {
	t.Parallel()

	roster := writeRoster(t, "alpha:Alpha\nbeta:Beta\ngamma:Gamma\n")
	statePath := filepath.Join(t.TempDir(), "rotation_state.json")
	r := New(roster, statePath, "", nil)
	r.now = func() time.Time { return time.Date(2025, 3, 1, 9, 15, 0, 0, time.UTC) }

	r.NextBatch()

	raw, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("parse state: %v", err)
	}
	if st.LastIndex != 2 {
		t.Fatalf("last_index = %d, want 2", st.LastIndex)
	}
	if st.TotalAccounts != 3 {
		t.Fatalf("total_accounts = %d", st.TotalAccounts)
	}
	if len(st.CycleAccounts) != 2 || st.CycleAccounts[0] != "alpha:Alpha" {
		t.Fatalf("current_cycle_accounts = %v", st.CycleAccounts)
	}
	if _, err := time.Parse(time.RFC3339, st.LastRun); err != nil {
		t.Fatalf("last_run not RFC3339: %q", st.LastRun)
	}
}

func TestInfo(t *testing.T) {
	t.Parallel()

	small := writeRoster(t, "alpha\n")
	r := New(small, filepath.Join(t.TempDir(), "s.json"), "basic", nil)
	if got := r.Info(); got != "Monitoring all 1 accounts (within API limits)" {
		t.Fatalf("small roster info = %q", got)
	}

	big := writeRoster(t, "alpha\nbeta\ngamma\n")
	statePath := filepath.Join(t.TempDir(), "rotation_state.json")
	r = New(big, statePath, "", nil)
	r.NextBatch()
	if got := r.Info(); got != "Rotation cycle 2/2: 2 accounts this run" {
		t.Fatalf("rotation info = %q", got)
	}
}

func TestParseRoster(t *testing.T) {
	t.Parallel()

	accounts := ParseRoster("alpha:Alpha Corp\n\n  beta  \ngamma : Gamma Inc \n")
	if len(accounts) != 3 {
		t.Fatalf("got %d accounts", len(accounts))
	}
	if accounts[0].Handle != "alpha" || accounts[0].Company != "Alpha Corp" {
		t.Fatalf("accounts[0] = %+v", accounts[0])
	}
	if accounts[1].Handle != "beta" || accounts[1].Company != "beta" {
		t.Fatalf("accounts[1] = %+v", accounts[1])
	}
	if accounts[2].Handle != "gamma" || accounts[2].Company != "Gamma Inc" {
		t.Fatalf("accounts[2] = %+v", accounts[2])
	}
}
