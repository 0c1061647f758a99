package timecodec

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/okian/meetscore/internal/domain/model"
)

// EventName is the parsed identity of an event name.
type EventName struct {
	Distance int
	Stroke   model.Stroke
	Relay    bool
}

// Key returns the canonical key of the parsed name.
func (n EventName) Key() string { return Key(n.Distance, n.Stroke, n.Relay) }

var strokeAliases = map[string]model.Stroke{
	"free": model.Free, "fr": model.Free, "freestyle": model.Free, "fs": model.Free, "frees": model.Free,
	"back": model.Back, "bk": model.Back, "ba": model.Back, "backstroke": model.Back,
	"breast": model.Breast, "br": model.Breast, "brs": model.Breast, "breaststroke": model.Breast,
	"fly": model.Fly, "fl": model.Fly, "bf": model.Fly, "butterfly": model.Fly,
	"im": model.IM,
	"medley": model.Medley,
	"diving": model.Dive, "dive": model.Dive, "div": model.Dive,
}

// noise tokens carry no distance/stroke identity.
var noise = map[string]bool{
	"yard": true, "yards": true, "yd": true, "y": true, "scy": true,
	"meter": true, "meters": true, "m": true, "lcm": true, "scm": true,
	"men": true, "mens": true, "women": true, "womens": true, "boys": true, "girls": true,
	"mixed": true, "event": true, "style": true,
}

var relayTokens = map[string]bool{"relay": true, "rly": true, "r": true}

// Key builds a canonical key from its parts.
func Key(distance int, stroke model.Stroke, relay bool) string {
	if stroke == model.Dive {
		return string(model.Dive)
	}
	k := strconv.Itoa(distance) + "-" + string(stroke)
	if relay {
		k += "-relay"
	}
	return k
}

// ParseEventName extracts distance, stroke and relay-ness from a free-form
// event name. It reports false when no stroke can be identified.
func ParseEventName(name string) (EventName, bool) {
	toks := tokens(name)
	var (
		out        EventName
		haveStroke bool
		individual bool
	)
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch {
		case relayTokens[t]:
			out.Relay = true
		case t == "individual" || t == "ind":
			individual = true
		case out.Distance == 0 && allDigits(t):
			out.Distance, _ = strconv.Atoi(t)
		default:
			if s, ok := strokeAliases[t]; ok && !haveStroke {
				out.Stroke = s
				haveStroke = true
			}
		}
	}
	if !haveStroke {
		return EventName{}, false
	}
	switch {
	case out.Stroke == model.Dive:
		out.Distance, out.Relay = 0, false
	case out.Stroke == model.Medley && (individual || !out.Relay):
		out.Stroke = model.IM
	case out.Stroke == model.IM && out.Relay:
		out.Stroke = model.Medley
	}
	return out, true
}

// NormalizeEventName maps an event name to its canonical key. Two names
// normalize equal iff they denote the same distance and stroke. Names
// without a recognisable stroke fall back to their joined tokens.
func NormalizeEventName(name string) string {
	if n, ok := ParseEventName(name); ok {
		return n.Key()
	}
	return strings.Join(tokens(name), "-")
}

// tokens lower-cases name, splits digits from letters ("50FR" → 50, fr) and
// drops punctuation and noise words.
func tokens(name string) []string {
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			t := string(cur)
			if !noise[t] {
				out = append(out, t)
			}
			cur = cur[:0]
		}
	}
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsDigit(r):
			if len(cur) > 0 && !unicode.IsDigit(cur[len(cur)-1]) {
				flush()
			}
			cur = append(cur, r)
		case unicode.IsLetter(r):
			if len(cur) > 0 && unicode.IsDigit(cur[len(cur)-1]) {
				flush()
			}
			cur = append(cur, r)
		default:
			flush()
		}
	}
	flush()
	return out
}
