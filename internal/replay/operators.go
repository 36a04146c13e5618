package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Operator is the numeric identifier of a playable operator as recorded in
// the replay. The zero value means the operator was never assigned.
type Operator uint64

const (
	Ace         Operator = 104189664390
	Alibi       Operator = 104189662071
	Amaru       Operator = 104189663607
	Aruni       Operator = 104189664704
	Ash         Operator = 92270642656
	Azami       Operator = 378305069945
	Bandit      Operator = 92270642526
	Blackbeard  Operator = 92270642136
	Blitz       Operator = 92270642539
	Brava       Operator = 288200866821
	Buck        Operator = 92270642474
	Capitao     Operator = 92270644215
	Castle      Operator = 92270642682
	Caveira     Operator = 92270644241
	Clash       Operator = 104189662280
	Doc         Operator = 92270644007
	Dokkaebi    Operator = 92270644267
	Echo        Operator = 92270642214
	Ela         Operator = 92270644163
	Finka       Operator = 104189661965
	Flores      Operator = 328397386974
	Frost       Operator = 92270642500
	Fuze        Operator = 92270642032
	Glaz        Operator = 92270642084
	Goyo        Operator = 104189663698
	Gridlock    Operator = 174977508808
	Grim        Operator = 374667788042
	Hibana      Operator = 92270642240
	Iana        Operator = 104189664038
	IQ          Operator = 92270642578
	Jackal      Operator = 92270644345
	Jager       Operator = 92270642604
	Kaid        Operator = 161289666230
	Kali        Operator = 104189663920
	Kapkan      Operator = 92270641980
	Lesion      Operator = 92270642266
	Lion        Operator = 104189661861
	Maestro     Operator = 104189662175
	Maverick    Operator = 104189662384
	Melusi      Operator = 104189664273
	Mira        Operator = 92270644319
	Montagne    Operator = 92270644033
	Mozzie      Operator = 174977508820
	Mute        Operator = 92270642318
	Nokk        Operator = 104189663024
	Nomad       Operator = 161289666248
	Oryx        Operator = 104189664155
	Osa         Operator = 288200867444
	Pulse       Operator = 92270642708
	Rook        Operator = 92270644059
	Sens        Operator = 384797789346
	Sledge      Operator = 92270642344
	Smoke       Operator = 92270642396
	Solis       Operator = 391752120891
	Tachanka    Operator = 291437347686
	Thatcher    Operator = 92270642422
	Thermite    Operator = 92270642760
	Thorn       Operator = 373711624351
	Thunderbird Operator = 288200867351
	Twitch      Operator = 92270644111
	Valkyrie    Operator = 92270642188
	Vigil       Operator = 92270644293
	Wamai       Operator = 104189663803
	Warden      Operator = 104189662920
	Ying        Operator = 92270642292
	Zero        Operator = 291191151607
	Zofia       Operator = 92270644189
)

type operatorInfo struct {
	name string
	role TeamRole
}

var operators = map[Operator]operatorInfo{
	Ace:         {"Ace", Attack},
	Alibi:       {"Alibi", Defense},
	Amaru:       {"Amaru", Attack},
	Aruni:       {"Aruni", Defense},
	Ash:         {"Ash", Attack},
	Azami:       {"Azami", Defense},
	Bandit:      {"Bandit", Defense},
	Blackbeard:  {"Blackbeard", Attack},
	Blitz:       {"Blitz", Attack},
	Brava:       {"Brava", Attack},
	Buck:        {"Buck", Attack},
	Capitao:     {"Capitao", Attack},
	Castle:      {"Castle", Defense},
	Caveira:     {"Caveira", Defense},
	Clash:       {"Clash", Defense},
	Doc:         {"Doc", Defense},
	Dokkaebi:    {"Dokkaebi", Attack},
	Echo:        {"Echo", Defense},
	Ela:         {"Ela", Defense},
	Finka:       {"Finka", Attack},
	Flores:      {"Flores", Attack},
	Frost:       {"Frost", Defense},
	Fuze:        {"Fuze", Attack},
	Glaz:        {"Glaz", Attack},
	Goyo:        {"Goyo", Defense},
	Gridlock:    {"Gridlock", Attack},
	Grim:        {"Grim", Attack},
	Hibana:      {"Hibana", Attack},
	Iana:        {"Iana", Attack},
	IQ:          {"IQ", Attack},
	Jackal:      {"Jackal", Attack},
	Jager:       {"Jager", Defense},
	Kaid:        {"Kaid", Defense},
	Kali:        {"Kali", Attack},
	Kapkan:      {"Kapkan", Defense},
	Lesion:      {"Lesion", Defense},
	Lion:        {"Lion", Attack},
	Maestro:     {"Maestro", Defense},
	Maverick:    {"Maverick", Attack},
	Melusi:      {"Melusi", Defense},
	Mira:        {"Mira", Defense},
	Montagne:    {"Montagne", Attack},
	Mozzie:      {"Mozzie", Defense},
	Mute:        {"Mute", Defense},
	Nokk:        {"Nokk", Attack},
	Nomad:       {"Nomad", Attack},
	Oryx:        {"Oryx", Defense},
	Osa:         {"Osa", Attack},
	Pulse:       {"Pulse", Defense},
	Rook:        {"Rook", Defense},
	Sens:        {"Sens", Attack},
	Sledge:      {"Sledge", Attack},
	Smoke:       {"Smoke", Defense},
	Solis:       {"Solis", Defense},
	Tachanka:    {"Tachanka", Defense},
	Thatcher:    {"Thatcher", Attack},
	Thermite:    {"Thermite", Attack},
	Thorn:       {"Thorn", Defense},
	Thunderbird: {"Thunderbird", Defense},
	Twitch:      {"Twitch", Attack},
	Valkyrie:    {"Valkyrie", Defense},
	Vigil:       {"Vigil", Defense},
	Wamai:       {"Wamai", Defense},
	Warden:      {"Warden", Defense},
	Ying:        {"Ying", Attack},
	Zero:        {"Zero", Attack},
	Zofia:       {"Zofia", Attack},
}

// ErrUnknownOperator reports an operator id missing from the known roster.
var ErrUnknownOperator = errors.New("unknown operator")

// Known reports whether the operator id is in the known roster.
func (o Operator) Known() bool {
	_, ok := operators[o]
	return ok
}

// Name returns the operator's name, or "" when unassigned.
func (o Operator) Name() string {
	if o == 0 {
		return ""
	}
	return o.String()
}

func (o Operator) String() string {
	if info, ok := operators[o]; ok {
		return info.name
	}
	return fmt.Sprintf("Operator(%d)", uint64(o))
}

// Role returns the side the operator plays on.
func (o Operator) Role() (TeamRole, error) {
	info, ok := operators[o]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownOperator, uint64(o))
	}
	return info.role, nil
}

// OperatorByName resolves an operator from its name.
func OperatorByName(name string) (Operator, bool) {
	for id, info := range operators {
		if info.name == name {
			return id, true
		}
	}
	return 0, false
}

// Operators returns every known operator id in ascending order.
func Operators() []Operator {
	out := make([]Operator, 0, len(operators))
	for id := range operators {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (o Operator) MarshalJSON() ([]byte, error) {
	return json.Marshal(namedID{Name: o.Name(), ID: uint64(o)})
}

func (o *Operator) UnmarshalJSON(data []byte) error {
	id, err := decodeNamedID(data, func(name string) (uint64, bool) {
		op, ok := OperatorByName(name)
		return uint64(op), ok
	})
	if errors.Is(err, errUnknownName) {
		return fmt.Errorf("%w: %w", ErrUnknownOperator, err)
	}
	if err != nil {
		return fmt.Errorf("operator: %w", err)
	}
	*o = Operator(id)
	return nil
}

// operatorLabel extracts the name from an operator JSON value.
func operatorLabel(data []byte) string {
	var named namedID
	if json.Unmarshal(data, &named) == nil {
		return named.Name
	}
	var name string
	if json.Unmarshal(data, &name) == nil {
		return name
	}
	return ""
}
