package replay

import (
	"fmt"
	"math"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Action is one normalized entry of the replay timeline.
type Action struct {
	Index               int             `json:"index"`
	Kind                Kind            `json:"kind"`
	Code                int             `json:"code"`
	BuildCount          int             `json:"buildCount"`
	Time                string          `json:"time"`
	Turn                int             `json:"turn"`
	Freeze              json.RawMessage `json:"freeze,omitempty"`
	Order               json.RawMessage `json:"order,omitempty"`
	PreviousTurnOutcome *Outcome        `json:"previousTurnOutcome"`
	Lives               *int            `json:"lives"`
	Amount              *int            `json:"amount,omitempty"`
	Request             json.RawMessage `json:"request,omitempty"`
	Response            json.RawMessage `json:"response,omitempty"`
	Build               json.RawMessage `json:"build,omitempty"`
	Battle              json.RawMessage `json:"battle,omitempty"`
	Board               json.RawMessage `json:"board,omitempty"`
}

type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger sets the logger that receives per-action diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Normalize converts the raw action stream into one Action per raw action,
// carrying lives and the previous battle outcome forward. Only a missing
// actions list is fatal; everything else is recorded in the Report.
func Normalize(doc *Document, opts ...Option) ([]Action, Report, error) {
	if doc == nil || doc.Actions == nil {
		return nil, Report{}, ErrMissingActions
	}

	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	n := &normalizer{logger: o.logger.With().Str("match", doc.MatchID).Logger()}
	n.init(doc)

	actions := make([]Action, 0, len(doc.Actions))
	for i, raw := range doc.Actions {
		actions = append(actions, n.step(i, raw))
	}
	return actions, n.report, nil
}

// normalizer is the running state threaded through the action stream.
type normalizer struct {
	lives    *int
	maxLives *int
	previous *Outcome
	report   Report
	logger   zerolog.Logger
}

func (n *normalizer) init(doc *Document) {
	mode, err := doc.DecodeGenesisMode()
	if err != nil {
		n.issue(DocumentIndex, 0, CodeUndecodablePayload, err)
		return
	}
	if mode == nil || mode.MaxLives == nil {
		return
	}
	lives := *mode.MaxLives
	maxLives := *mode.MaxLives
	n.lives = &lives
	n.maxLives = &maxLives
}

func (n *normalizer) step(index int, raw RawAction) Action {
	kind, known := Classify(raw.Type)
	action := Action{
		Index:      index,
		Kind:       kind,
		Code:       raw.Type,
		BuildCount: raw.BuildChangeCount,
		Time:       raw.CreatedOn,
		Turn:       raw.Turn,
	}

	if !known {
		n.issue(index, raw.Turn, CodeUnknownActionType, fmt.Errorf("%w: %d", ErrUnknownActionType, raw.Type))
		n.snapshot(&action)
		return action
	}
	if kind == KindUnknown {
		n.logger.Debug().Int("index", index).Int("turn", raw.Turn).Msg("skipping action with unknown payload layout")
	}

	payloads := kind.Payloads()
	if payloads.Has(PayloadRequest) {
		action.Request = n.decode(index, raw.Turn, "request", raw.Request)
	}
	if payloads.Has(PayloadResponse) && !(kind == KindWatch && isWatchPlaceholder(raw.Response)) {
		action.Response = n.decode(index, raw.Turn, "response", raw.Response)
	}
	if payloads.Has(PayloadBuild) {
		action.Build = n.decode(index, raw.Turn, "build", raw.Build)
	}
	if payloads.Has(PayloadBattle) {
		action.Battle = n.decode(index, raw.Turn, "battle", raw.Battle)
	}
	if payloads.Has(PayloadMode) {
		action.Board = n.decode(index, raw.Turn, "mode", raw.Mode)
	}

	if kind == KindReady {
		n.ready(&action)
	}
	if action.Request != nil {
		n.request(&action)
	}

	n.snapshot(&action)
	return action
}

func (n *normalizer) ready(action *Action) {
	if action.Battle != nil {
		battle, err := decodeObject(action.Battle)
		if err != nil {
			n.issue(action.Index, action.Turn, CodeUndecodablePayload, fmt.Errorf("%w: battle: %v", ErrUndecodablePayload, err))
		} else {
			outcome, err := lookup[Outcome](battle, "Outcome")
			if err != nil {
				n.issue(action.Index, action.Turn, CodeUndecodablePayload, err)
			} else if outcome != nil {
				n.previous = outcome
			}
			if outcome != nil && *outcome == OutcomeLoss && n.lives != nil {
				*n.lives--
			}
		}
	}

	// The game hands back the life lost in the first battle.
	if action.Turn == 2 && n.lives != nil && n.maxLives != nil && *n.lives < *n.maxLives {
		*n.lives++
	}
}

// maxFoodCost bounds the buy-food Cost accepted as an amount.
const maxFoodCost = math.MaxInt32

func (n *normalizer) request(action *Action) {
	request, err := decodeObject(action.Request)
	if err != nil {
		n.issue(action.Index, action.Turn, CodeUndecodablePayload, fmt.Errorf("%w: request: %v", ErrUndecodablePayload, err))
		return
	}

	action.Freeze = rawField(request, "BoardFreezes")
	action.Order = rawField(request, "BoardOrders")

	if action.Kind != KindBuyFood {
		return
	}
	cost, err := lookup[float64](request, "Cost")
	if err != nil {
		n.issue(action.Index, action.Turn, CodeUndecodablePayload, err)
		return
	}
	if cost == nil {
		return
	}
	truncated := math.Trunc(*cost)
	if math.IsNaN(truncated) || truncated < 0 || truncated > maxFoodCost {
		n.issue(action.Index, action.Turn, CodeUndecodablePayload, fmt.Errorf("%w: request: Cost %v out of range", ErrUndecodablePayload, *cost))
		return
	}
	amount := int(truncated)
	action.Amount = &amount
}

func (n *normalizer) decode(index, turn int, name string, p Payload) json.RawMessage {
	raw, err := decodePayload(p)
	if err != nil {
		n.issue(index, turn, CodeUndecodablePayload, fmt.Errorf("%s: %w", name, err))
		return nil
	}
	return raw
}

func (n *normalizer) snapshot(action *Action) {
	if n.lives != nil {
		lives := *n.lives
		action.Lives = &lives
	}
	if n.previous != nil {
		previous := *n.previous
		action.PreviousTurnOutcome = &previous
	}
}

func (n *normalizer) issue(index, turn int, code IssueCode, err error) {
	n.report.add(index, turn, code, err)
	n.logger.Warn().Err(err).Int("index", index).Int("turn", turn).Str("code", string(code)).Msg("replay issue")
}
