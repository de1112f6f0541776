package replay

import (
	"sapreplay/internal/timestamp"
)

// Summary is the flat per-match record. Pointer fields are nil when the
// replay does not carry the value. Opponent lists are nil when the format
// does not report opponents and empty when it reports none.
type Summary struct {
	MatchID         string   `json:"matchId"`
	ParticipationID string   `json:"participationId,omitempty"`
	StartedAt       string   `json:"startedAt"`
	EndedAt         *string  `json:"endedAt"`
	DurationSeconds *float64 `json:"durationSeconds"`
	Version         *int     `json:"version"`
	Turns           int      `json:"turns"`
	Outcome         Outcome  `json:"outcome"`
	GameMode        Mode     `json:"gameMode"`
	Versus          bool     `json:"versus"`
	Ranked          *bool    `json:"ranked"`
	PlayerCount     *int     `json:"playerCount"`
	MaxLives        *int     `json:"maxLives"`

	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	UserPack *string `json:"userPack"`
	UserRank *int    `json:"userRank"`

	OpponentIDs              []string  `json:"opponentIds"`
	OpponentNames            []string  `json:"opponentNames"`
	OpponentRanks            []*int    `json:"opponentRanks"`
	OpponentPacks            []*string `json:"opponentPacks"`
	OpponentParticipationIDs []string  `json:"opponentParticipationIds"`
}

// Summarize extracts the match summary from the raw document. It never
// fails; missing or undecodable parts leave the matching fields unset and
// are recorded in the Report.
func Summarize(doc *Document) (Summary, Report) {
	var report Report
	if doc == nil {
		return Summary{}, report
	}

	s := Summary{
		MatchID:         doc.MatchID,
		ParticipationID: doc.ParticipationID,
		StartedAt:       doc.CreatedOn,
		Turns:           doc.LastTurn,
		Outcome:         doc.Outcome,
		GameMode:        doc.Mode,
		UserID:          doc.UserID,
		UserName:        doc.UserName,
	}

	summarizeGenesisMode(doc, &s, &report)

	pack, err := doc.UserPack()
	if err != nil {
		report.add(DocumentIndex, 0, CodeUndecodablePayload, err)
	} else if pack != "" {
		s.UserPack = &pack
	}

	if len(doc.Actions) > 0 {
		first := doc.Actions[0]
		last := doc.Actions[len(doc.Actions)-1]

		version, err := firstVersion(first)
		if err != nil {
			report.add(0, first.Turn, CodeUndecodablePayload, err)
		}
		s.Version = version

		rank, err := lastRank(last)
		if err != nil {
			report.add(len(doc.Actions)-1, last.Turn, CodeUndecodablePayload, err)
		}
		s.UserRank = rank

		if last.CreatedOn != "" {
			ended := last.CreatedOn
			s.EndedAt = &ended
			elapsed, err := timestamp.Between(doc.CreatedOn, ended)
			if err != nil {
				report.add(DocumentIndex, 0, CodeMalformedTimestamp, err)
			} else {
				if elapsed < 0 {
					elapsed = 0
				}
				s.DurationSeconds = &elapsed
			}
		}
	}

	return s, report
}

func summarizeGenesisMode(doc *Document, s *Summary, report *Report) {
	if doc.GenesisModeModel.Empty() {
		report.add(DocumentIndex, 0, CodeMissingGenesisModeModel, ErrMissingGenesisModeModel)
		return
	}
	s.Versus = true

	mode, err := doc.DecodeGenesisMode()
	if err != nil {
		report.add(DocumentIndex, 0, CodeUndecodablePayload, err)
		return
	}

	ranked := !mode.Named
	s.Ranked = &ranked
	s.PlayerCount = mode.ActivePlayerCount
	s.MaxLives = mode.MaxLives

	s.OpponentIDs = make([]string, 0, len(mode.Opponents))
	s.OpponentNames = make([]string, 0, len(mode.Opponents))
	s.OpponentRanks = make([]*int, 0, len(mode.Opponents))
	s.OpponentPacks = make([]*string, 0, len(mode.Opponents))
	s.OpponentParticipationIDs = make([]string, 0, len(mode.Opponents))
	for _, o := range mode.Opponents {
		s.OpponentIDs = append(s.OpponentIDs, o.UserID)
		s.OpponentNames = append(s.OpponentNames, o.DisplayName)
		s.OpponentRanks = append(s.OpponentRanks, o.Rank)
		var pack *string
		if o.Pack != "" {
			p := string(o.Pack)
			pack = &p
		}
		s.OpponentPacks = append(s.OpponentPacks, pack)
		s.OpponentParticipationIDs = append(s.OpponentParticipationIDs, o.ParticipationID)
	}
}

func firstVersion(a RawAction) (*int, error) {
	raw, err := decodePayload(a.Request)
	if err != nil || raw == nil {
		return nil, err
	}
	request, err := decodeObject(raw)
	if err != nil {
		return nil, nil
	}
	return lookup[int](request, "Version")
}

func lastRank(a RawAction) (*int, error) {
	raw, err := decodePayload(a.Response)
	if err != nil || raw == nil {
		return nil, err
	}
	response, err := decodeObject(raw)
	if err != nil {
		return nil, nil
	}
	rank, err := lookup[newRank](response, "NewRank")
	if err != nil || rank == nil {
		return nil, err
	}
	return rank.OldValue, nil
}
