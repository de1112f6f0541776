package replay

import (
	"fmt"
	"strings"
)

// Kind is the named type of a recorded action. Raw integer codes never leave
// this package except as Action.Code.
type Kind int

const (
	KindReady Kind = iota
	KindMode
	KindWatch
	KindUnknown
	KindStartTurn
	KindRoll
	KindBuyPet
	KindCombinePet
	KindBuyFood
	KindSellPet
	KindChoose
	KindEndTurn
	KindNameBoard
)

var kindNames = [...]string{
	KindReady:      "ready",
	KindMode:       "mode",
	KindWatch:      "watch",
	KindUnknown:    "unknown",
	KindStartTurn:  "start-turn",
	KindRoll:       "roll",
	KindBuyPet:     "buy-pet",
	KindCombinePet: "combine-pet",
	KindBuyFood:    "buy-food",
	KindSellPet:    "sell-pet",
	KindChoose:     "choose",
	KindEndTurn:    "end-turn",
	KindNameBoard:  "name-board",
}

// Kinds lists every kind in code order.
func Kinds() []Kind {
	kinds := make([]Kind, len(kindNames))
	for i := range kindNames {
		kinds[i] = Kind(i)
	}
	return kinds
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Classify maps a raw action code to its kind. ok is false for codes outside
// the known range, which classify as KindUnknown.
func Classify(code int) (Kind, bool) {
	if code < 0 || code >= len(kindNames) {
		return KindUnknown, false
	}
	return Kind(code), true
}

func ParseKind(name string) (Kind, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	needle = strings.ReplaceAll(needle, "_", "-")
	for i, n := range kindNames {
		if n == needle {
			return Kind(i), nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown action kind %q", name)
}

// PayloadSet is the set of sub-payloads an action kind carries.
type PayloadSet uint8

const (
	PayloadRequest PayloadSet = 1 << iota
	PayloadResponse
	PayloadBuild
	PayloadBattle
	PayloadMode
)

func (s PayloadSet) Has(p PayloadSet) bool {
	return s&p == p
}

func (k Kind) Payloads() PayloadSet {
	switch k {
	case KindReady:
		return PayloadBuild | PayloadBattle
	case KindMode:
		return PayloadMode
	case KindWatch:
		return PayloadResponse
	case KindStartTurn, KindRoll, KindBuyPet, KindCombinePet, KindBuyFood,
		KindSellPet, KindChoose, KindEndTurn:
		return PayloadRequest | PayloadResponse
	case KindNameBoard:
		return PayloadRequest
	default:
		return 0
	}
}
