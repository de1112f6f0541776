package sqlite

import (
	"context"
	"reflect"
	"sort"
	"testing"

	"sapreplay/internal/store"
)

func TestConvertWebsearchToFTS5(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single name", "Alice", `"Alice"`},
		{"two names", "Alice  Bob", `"Alice" AND "Bob"`},
		{"or", "Alice OR Bob", `"Alice" OR "Bob"`},
		{"lowercase operators", "alice or bob", `"alice" OR "bob"`},
		{"quoted display name", `"Big Bob"`, `"Big Bob"`},
		{"quoted after or", `Alice OR "Big Bob"`, `"Alice" OR "Big Bob"`},
		{"prefix", "Ali*", `"Ali"*`},
		{"exclude", "Alice -Rival", `"Alice" NOT "Rival"`},
		{"exclude quoted", `Alice -"Big Bob"`, `"Alice" NOT "Big Bob"`},
		{"or before exclude", "Alice OR -Rival", `"Alice" NOT "Rival"`},
		{"explicit not", "Alice NOT Rival", `"Alice" NOT "Rival"`},
		{"leading exclude dropped", "-Rival", ""},
		{"punctuation kept literal", "O'Neil", `"O'Neil"`},
		{"dangling operators", "OR Alice AND", `"Alice"`},
		{"unterminated quote", `"Big Bo`, `"Big Bo"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertWebsearchToFTS5(tt.input)
			if result != tt.expected {
				t.Errorf("convertWebsearchToFTS5(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func seedSearchReplays(t *testing.T, c *Client) {
	t.Helper()
	for _, in := range []store.ReplayInput{
		testInput("a.json", "m-a", "pid-a", "Alice", "Rival", "Big Bob"),
		testInput("b.json", "m-b", "pid-b", "Bob", "Carol"),
		testInput("c.json", "m-c", "pid-c", "Alison", "Rival"),
		testInput("d.json", "m-d", "pid-d", "O'Neil", "Alice"),
	} {
		if err := c.UpsertReplay(context.Background(), in); err != nil {
			t.Fatalf("UpsertReplay: %v", err)
		}
	}
}

func matchIDs(results []store.SearchResult) []string {
	ids := []string{}
	for _, r := range results {
		ids = append(ids, r.MatchID)
	}
	sort.Strings(ids)
	return ids
}

func TestSearchPlayerNames(t *testing.T) {
	c := newTestClient(t)
	seedSearchReplays(t, c)

	tests := []struct {
		query string
		want  []string
	}{
		{"Ali*", []string{"m-a", "m-c", "m-d"}},
		{"Alice OR Bob", []string{"m-a", "m-b", "m-d"}},
		{`"Big Bob"`, []string{"m-a"}},
		{"Rival -Alice", []string{"m-c"}},
		{`Alice -"Big Bob"`, []string{"m-d"}},
		{"O'Neil", []string{"m-d"}},
		{"Nobody", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := c.Search(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Search(%q): %v", tt.query, err)
			}
			if ids := matchIDs(got); !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, ids, tt.want)
			}
		})
	}
}

func TestSearchRanksOwnerAboveOpponent(t *testing.T) {
	c := newTestClient(t)
	seedSearchReplays(t, c)

	got, err := c.Search(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 || got[0].MatchID != "m-a" || got[1].MatchID != "m-d" {
		t.Fatalf("unexpected ranking %+v", got)
	}
}

func TestSearchOnlyNegatedTerms(t *testing.T) {
	c := newTestClient(t)
	if _, err := c.Search(context.Background(), "-Rival"); err == nil {
		t.Error("expected error for a query with no positive terms")
	}
}

func TestConvertedQueriesFilterByColumn(t *testing.T) {
	c := newTestClient(t)
	seedSearchReplays(t, c)

	tests := []struct {
		column string
		query  string
		want   []string
	}{
		{"user_name", "Alice", []string{"m-a"}},
		{"opponent_names", "Alice", []string{"m-d"}},
		{"user_name", "Ali*", []string{"m-a", "m-c"}},
		{"opponent_names", "Rival", []string{"m-a", "m-c"}},
		{"opponent_names", `"Big Bob"`, []string{"m-a"}},
	}

	for _, tt := range tests {
		t.Run(tt.column+" "+tt.query, func(t *testing.T) {
			expr := tt.column + " : " + convertWebsearchToFTS5(tt.query)
			rows, err := c.db.QueryContext(context.Background(), `
			SELECT r.match_id FROM replays_fts
			JOIN replays r ON replays_fts.rowid = r.id
			WHERE replays_fts MATCH ?
			ORDER BY r.match_id`, expr)
			if err != nil {
				t.Fatalf("MATCH %q: %v", expr, err)
			}
			defer rows.Close()

			ids := []string{}
			for rows.Next() {
				var id string
				if err := rows.Scan(&id); err != nil {
					t.Fatal(err)
				}
				ids = append(ids, id)
			}
			if err := rows.Err(); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("MATCH %q = %v, want %v", expr, ids, tt.want)
			}
		})
	}
}
