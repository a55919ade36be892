package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", "ola") || !m.Enabled("c", "ola") || !m.Enabled("e", "ola") {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", "ola") || m.Enabled("d", "ola") || m.Enabled("f", "ola") {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
	if m.Enabled("missing", "ola") {
		t.Fatal("unknown flags must be disabled")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=x%")

	if !m.Enabled("always", "") {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", "ola") {
		t.Fatal("0% rollout should always be disabled")
	}
	if m.Enabled("broken", "ola") {
		t.Fatal("unparseable percentage should be disabled")
	}

	first := m.Enabled("canary", "kari")
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", "kari"); got != first {
			t.Fatal("rollout evaluation must be deterministic per subject")
		}
	}

	if m.Enabled("canary", "") {
		t.Fatal("percentage rollout requires a subject")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,Post_Cache=ON, tag_filter = 20% ,z=off ")

	names := m.Names()
	if len(names) != 3 || names[0] != PostCache || names[1] != TagFilter || names[2] != "z" {
		t.Fatalf("unexpected flag names: %#v", names)
	}

	snap := m.Snapshot("ola")
	if len(snap) != 3 || !snap[PostCache] || snap["z"] {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager
	if m.Enabled(PostCache, "ola") {
		t.Fatal("nil manager must report every flag disabled")
	}
}
