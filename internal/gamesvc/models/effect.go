package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Verb string

const (
	VerbNoOp                  Verb = "Do"
	VerbCollect               Verb = "Collect"
	VerbPay                   Verb = "Pay"
	VerbMoveTo                Verb = "MoveTo"
	VerbMoveRelative          Verb = "MoveRelative"
	VerbGoToJoint             Verb = "GoToJoint"
	VerbDraw                  Verb = "Draw"
	VerbKeep                  Verb = "Keep"
	VerbPayEachPlayer         Verb = "PayEachPlayer"
	VerbCollectFromEachPlayer Verb = "CollectFromEachPlayer"
)

// Effect is one parsed instruction of an action space or card.
// Amount is used by the cash verbs, Target by MoveTo (board index) and
// MoveRelative (delta), Deck by Draw and Detail by NoOp.
type Effect struct {
	Verb   Verb   `json:"verb"`
	Amount int    `json:"amount,omitempty"`
	Target int    `json:"target,omitempty"`
	Deck   string `json:"deck,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func NoOp(detail string) Effect { return Effect{Verb: VerbNoOp, Detail: detail} }

func (e Effect) String() string {
	switch e.Verb {
	case VerbCollect, VerbPay, VerbPayEachPlayer, VerbCollectFromEachPlayer:
		return fmt.Sprintf("%s::%d", e.Verb, e.Amount)
	case VerbMoveTo, VerbMoveRelative:
		return fmt.Sprintf("%s::%d", e.Verb, e.Target)
	case VerbDraw:
		return fmt.Sprintf("%s::%s", e.Verb, e.Deck)
	case VerbNoOp:
		return fmt.Sprintf("%s::%s", e.Verb, e.Detail)
	}
	return string(e.Verb)
}

// IsNoOp reports whether a parsed list carries nothing but a single no-op.
func IsNoOp(effects []Effect) bool {
	return len(effects) == 0 || (len(effects) == 1 && effects[0].Verb == VerbNoOp)
}

// ParseActionEffect parses a "Verb::Arg" descriptor such as "Pay::200",
// "Draw::Vault" or "Move::toJoint".
func ParseActionEffect(descriptor string) Effect {
	verb, arg, _ := strings.Cut(strings.TrimSpace(descriptor), "::")
	return buildEffect(verb, arg)
}

// NormalizeEffects turns a stored effect into an ordered list. The stored
// form may be a "Verb::Arg" string, a single-key map {"Collect": 200},
// a record {"verb": "Collect", "arg": 200} or a list of any of those.
func NormalizeEffects(raw json.RawMessage) []Effect {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Effect{NoOp("nothing")}
	}

	switch raw[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return []Effect{NoOp("nothing")}
		}
		var out []Effect
		for _, item := range list {
			out = append(out, NormalizeEffects(item)...)
		}
		if len(out) == 0 {
			return []Effect{NoOp("nothing")}
		}
		return out
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return []Effect{NoOp("nothing")}
		}
		if v, ok := obj["verb"]; ok {
			return []Effect{buildEffect(rawArg(v), rawArg(obj["arg"]))}
		}
		if len(obj) == 1 {
			for verb, arg := range obj {
				return []Effect{buildEffect(verb, rawArg(arg))}
			}
		}
		return []Effect{NoOp("nothing")}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return []Effect{NoOp("nothing")}
		}
		if s == "" {
			return []Effect{NoOp("nothing")}
		}
		return []Effect{ParseActionEffect(s)}
	}

	// bare text that was never JSON encoded
	if !json.Valid(raw) {
		return []Effect{ParseActionEffect(string(raw))}
	}
	return []Effect{NoOp("nothing")}
}

// rawArg flattens a JSON scalar into its text form.
func rawArg(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func buildEffect(verb, arg string) Effect {
	verb = strings.TrimSpace(verb)
	arg = strings.TrimSpace(arg)
	n, numErr := strconv.Atoi(arg)

	switch strings.ToLower(verb) {
	case "do", "":
		if arg == "" {
			arg = "nothing"
		}
		return NoOp(arg)
	case "collect":
		return Effect{Verb: VerbCollect, Amount: n}
	case "pay":
		return Effect{Verb: VerbPay, Amount: n}
	case "move", "moveto":
		if numErr != nil {
			if strings.EqualFold(arg, "toJoint") || strings.EqualFold(arg, "joint") {
				return Effect{Verb: VerbGoToJoint}
			}
			return NoOp(verb + "::" + arg)
		}
		return Effect{Verb: VerbMoveTo, Target: n}
	case "moverelative":
		return Effect{Verb: VerbMoveRelative, Target: n}
	case "gotojoint", "gotojail":
		return Effect{Verb: VerbGoToJoint}
	case "draw":
		return Effect{Verb: VerbDraw, Deck: arg}
	case "keep":
		return Effect{Verb: VerbKeep}
	case "payeachplayer":
		return Effect{Verb: VerbPayEachPlayer, Amount: n}
	case "collectfromeachplayer":
		return Effect{Verb: VerbCollectFromEachPlayer, Amount: n}
	}
	return NoOp(verb)
}

var (
	amountRe    = regexp.MustCompile(`\$\s*(\d{1,5})`)
	advanceGoRe = regexp.MustCompile(`advance to go\b`)
	advanceToRe = regexp.MustCompile(`advance to (.+)`)
)

// InferEffects guesses the effect of a card from its message. lookup maps the
// text following "advance to" onto a board index.
func InferEffects(message string, lookup func(text string) (int, bool)) []Effect {
	msg := strings.ToLower(message)

	amount := -1
	if m := amountRe.FindStringSubmatch(msg); m != nil {
		amount, _ = strconv.Atoi(m[1])
	}

	switch {
	case strings.Contains(msg, "get out of jail"), strings.Contains(msg, "get out of the joint"):
		return []Effect{{Verb: VerbKeep}}
	case strings.Contains(msg, "go back 3"):
		return []Effect{{Verb: VerbMoveRelative, Target: -3}}
	case strings.Contains(msg, "go to jail"), strings.Contains(msg, "go to the joint"):
		return []Effect{{Verb: VerbGoToJoint}}
	case advanceGoRe.MatchString(msg):
		// the move itself pays the GO bonus
		return []Effect{{Verb: VerbMoveTo, Target: 0}}
	}

	if m := advanceToRe.FindStringSubmatch(msg); m != nil && lookup != nil {
		if idx, ok := lookup(m[1]); ok {
			return []Effect{{Verb: VerbMoveTo, Target: idx}}
		}
	}

	if amount >= 0 {
		switch {
		case strings.Contains(msg, "pay each player"):
			return []Effect{{Verb: VerbPayEachPlayer, Amount: amount}}
		case strings.Contains(msg, "collect") && (strings.Contains(msg, "every player") || strings.Contains(msg, "each player")):
			return []Effect{{Verb: VerbCollectFromEachPlayer, Amount: amount}}
		case strings.Contains(msg, "collect"), strings.Contains(msg, "receive"), strings.Contains(msg, "bank pays"):
			return []Effect{{Verb: VerbCollect, Amount: amount}}
		case strings.Contains(msg, "pay"):
			return []Effect{{Verb: VerbPay, Amount: amount}}
		}
	}

	// nearest railroad, repairs per unit and the like stay unhandled
	return []Effect{NoOp("nothing")}
}
