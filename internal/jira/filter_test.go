package jira

import "testing"

func sampleViews() []View {
	return []View{
		{Key: "BRD-1", Title: "Login page", Type: "Story", Status: "In Progress", Description: "SSO support"},
		{Key: "BRD-2", Title: "Export", Type: "Bug", Status: "To Do", Description: "Crash on docx"},
		{Key: "OPS-3", Title: "Alerts", Type: "Task", Status: "Done", Description: "Pager rotation"},
	}
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero matches all", Filter{}, []string{"BRD-1", "BRD-2", "OPS-3"}},
		{"search title", Filter{Search: "login"}, []string{"BRD-1"}},
		{"search description", Filter{Search: "DOCX"}, []string{"BRD-2"}},
		{"search key", Filter{Search: "ops-"}, []string{"OPS-3"}},
		{"status ignores spaces and dashes", Filter{Status: "in-progress"}, []string{"BRD-1"}},
		{"status ignores case", Filter{Status: "TODO"}, []string{"BRD-2"}},
		{"type", Filter{Type: "bug"}, []string{"BRD-2"}},
		{"combined", Filter{Search: "brd", Type: "story"}, []string{"BRD-1"}},
		{"no match", Filter{Search: "nothing"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(sampleViews())
			if len(got) != len(tt.want) {
				t.Fatalf("got %d views, want %d", len(got), len(tt.want))
			}
			for i, key := range tt.want {
				if got[i].Key != key {
					t.Errorf("view[%d] = %s, want %s", i, got[i].Key, key)
				}
			}
		})
	}
}

func TestFind(t *testing.T) {
	views := sampleViews()
	if i := Find(views, "BRD-2"); i != 1 {
		t.Errorf("Find() = %d, want 1", i)
	}
	if i := Find(views, "NOPE-1"); i != -1 {
		t.Errorf("Find() = %d, want -1", i)
	}
}
