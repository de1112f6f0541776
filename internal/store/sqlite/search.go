package sqlite

import (
	"context"
	"fmt"
	"strings"

	"sapreplay/internal/store"
)

// Search matches player names (the replay owner and opponents) using
// websearch-style syntax: quoted phrases, -negation, OR and trailing *.
func (c *Client) Search(ctx context.Context, query string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	ftsQuery := convertWebsearchToFTS5(query)
	if ftsQuery == "" {
		return nil, fmt.Errorf("query %q has no searchable terms", query)
	}

	sqlQuery := `
	SELECT r.match_id, r.participation_id, r.user_name, r.opponent_names, r.started_at,
		   -bm25(replays_fts, 2.0, 1.0) AS score
	FROM replays_fts
	JOIN replays r ON replays_fts.rowid = r.id
	WHERE replays_fts MATCH ?
	ORDER BY score DESC, r.started_at DESC
	LIMIT 50
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, ftsQuery)
	if err != nil {
		return nil, fmt.Errorf("searching replays: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var opponents string
		err := rows.Scan(&r.MatchID, &r.ParticipationID, &r.UserName, &opponents, &r.StartedAt, &r.Score)
		if err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Opponents = splitNames(opponents)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	return results, nil
}

func splitNames(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, "\n")
}

// searchTerm is one operand of a player-name query.
type searchTerm struct {
	text    string
	phrase  bool
	prefix  bool
	negated bool
}

func isOperator(word string) bool {
	return word == "AND" || word == "OR" || word == "NOT"
}

// convertWebsearchToFTS5 rewrites websearch syntax into an FTS5 expression.
// Every operand is emitted as a quoted string so names with punctuation stay
// literal. FTS5 NOT is binary, so a negated term needs a positive term
// before it; a leading negation is dropped.
func convertWebsearchToFTS5(query string) string {
	var out []string
	last := func() string {
		if len(out) == 0 {
			return ""
		}
		return out[len(out)-1]
	}

	for _, term := range scanSearchTerms(query) {
		if !term.phrase {
			if upper := strings.ToUpper(term.text); isOperator(upper) {
				if len(out) > 0 && !isOperator(last()) {
					out = append(out, upper)
				}
				continue
			}
		}

		operand := `"` + strings.ReplaceAll(term.text, `"`, `""`) + `"`
		if term.prefix {
			operand += "*"
		}

		switch {
		case term.negated && len(out) == 0:
			continue
		case term.negated && isOperator(last()):
			out[len(out)-1] = "NOT"
		case term.negated:
			out = append(out, "NOT")
		case len(out) > 0 && !isOperator(last()):
			out = append(out, "AND")
		}
		out = append(out, operand)
	}

	for len(out) > 0 && isOperator(last()) {
		out = out[:len(out)-1]
	}
	return strings.Join(out, " ")
}

// scanSearchTerms splits a query on whitespace, keeping quoted phrases
// together and recording -negation and trailing * prefixes.
func scanSearchTerms(query string) []searchTerm {
	var terms []searchTerm
	var current strings.Builder
	var inQuote, negated bool

	flush := func(phrase bool) {
		text := current.String()
		current.Reset()
		term := searchTerm{phrase: phrase, negated: negated}
		negated = false
		if !phrase {
			if strings.HasPrefix(text, "-") {
				term.negated = true
				text = text[1:]
			}
			if strings.HasSuffix(text, "*") {
				term.prefix = true
				text = strings.TrimRight(text, "*")
			}
		}
		if strings.TrimSpace(text) == "" {
			return
		}
		term.text = text
		terms = append(terms, term)
	}

	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '"' && inQuote:
			inQuote = false
			flush(true)
		case ch == '"':
			if current.String() == "-" {
				current.Reset()
				negated = true
			} else {
				flush(false)
			}
			inQuote = true
		case inQuote:
			current.WriteByte(ch)
		case ch == ' ' || ch == '\t':
			flush(false)
		default:
			current.WriteByte(ch)
		}
	}
	flush(inQuote)

	return terms
}
