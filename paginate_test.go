package privmsg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rbaliyan/privmsg/store"
)

func renderFilters(fs []store.Filter) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.String()
	}
	return out
}

func TestPaginate(t *testing.T) {
	base := []store.Filter{store.RecipientIs("bob")}

	tests := []struct {
		name        string
		params      ListParams
		wantFilters []store.Filter
		wantOpts    store.ListOptions
	}{
		{
			name:        "defaults",
			params:      ListParams{},
			wantFilters: base,
			wantOpts:    store.ListOptions{Limit: 20, SortOrder: store.SortDesc},
		},
		{
			name:        "newest with cursor",
			params:      ListParams{Order: "newest", FromID: "42", Limit: "5"},
			wantFilters: []store.Filter{base[0], store.IDAtMost(42)},
			wantOpts:    store.ListOptions{Limit: 5, SortOrder: store.SortDesc},
		},
		{
			name:        "oldest with cursor",
			params:      ListParams{Order: "oldest", FromID: "7"},
			wantFilters: []store.Filter{base[0], store.IDAtLeast(7)},
			wantOpts:    store.ListOptions{Limit: 20, SortOrder: store.SortAsc},
		},
		{
			name:        "max limit accepted",
			params:      ListParams{Limit: "50"},
			wantFilters: base,
			wantOpts:    store.ListOptions{Limit: 50, SortOrder: store.SortDesc},
		},
		{
			name:        "surrounding whitespace",
			params:      ListParams{FromID: " 3 ", Limit: " 1"},
			wantFilters: []store.Filter{base[0], store.IDAtMost(3)},
			wantOpts:    store.ListOptions{Limit: 1, SortOrder: store.SortDesc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Paginate(base, tt.params, 20, 50)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(renderFilters(tt.wantFilters), renderFilters(page.Filters)); diff != "" {
				t.Errorf("filters mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantOpts, page.Options); diff != "" {
				t.Errorf("options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPaginateDoesNotModifyBase(t *testing.T) {
	base := make([]store.Filter, 1, 4)
	base[0] = store.SenderIs("alice")

	if _, err := Paginate(base, ListParams{FromID: "1"}, 10, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Paginate(base, ListParams{Order: "oldest", FromID: "9"}, 10, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := base[:cap(base)][1]; got.Key() != "" {
		t.Errorf("base backing array was written: %v", got)
	}
}

func TestPaginateErrors(t *testing.T) {
	tests := []struct {
		name    string
		params  ListParams
		wantMsg string
	}{
		{"order", ListParams{Order: "sideways"}, msgInvalidOrder},
		{"from_id text", ListParams{FromID: "x1"}, msgInvalidFromID},
		{"from_id float", ListParams{FromID: "1.5"}, msgInvalidFromID},
		{"from_id overflow", ListParams{FromID: "99999999999999999999"}, msgInvalidFromID},
		{"limit zero", ListParams{Limit: "0"}, "Messages limit must be between 1 and 50"},
		{"limit negative", ListParams{Limit: "-1"}, "Messages limit must be between 1 and 50"},
		{"limit too large", ListParams{Limit: "51"}, "Messages limit must be between 1 and 50"},
		{"limit text", ListParams{Limit: "many"}, "Messages limit must be between 1 and 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Paginate(nil, tt.params, 20, 50)
			bie, ok := IsBadInput(err)
			if !ok {
				t.Fatalf("expected *BadInputError, got %v", err)
			}
			if bie.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", bie.Message, tt.wantMsg)
			}
		})
	}
}
