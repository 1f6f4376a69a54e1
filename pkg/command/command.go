/*
Package command implements the line protocol used to drive a typeahead engine.

Each line holds one command, fields separated by whitespace:

	ADD <type> <id> <score> <token>...
	DEL <id>
	QUERY <count> <token>...
	WQUERY <count> <boosts> <key:multiplier>... <token>...

Verbs are case-sensitive. Tokens are lower-cased before they reach the engine. QUERY and WQUERY
produce one output line: the matching ids joined by a single space, or an
empty line when nothing matches. Lines that are not commands, such as the
leading command count of a script, are skipped.
*/
package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/typeahead"
)

var (
	// ErrUnknownCommand is returned for blank lines and unknown verbs,
	// including known verbs in the wrong case.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMalformed is returned when a known command has bad arguments.
	ErrMalformed = errors.New("malformed command")
)

// Kind identifies a protocol verb.
type Kind int

const (
	KindAdd Kind = iota
	KindDelete
	KindQuery
	KindWeightedQuery
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "ADD"
	case KindDelete:
		return "DEL"
	case KindQuery:
		return "QUERY"
	case KindWeightedQuery:
		return "WQUERY"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Command is a parsed protocol line.
type Command struct {
	Kind   Kind
	Type   string
	ID     string
	Score  float64
	Count  int
	Tokens []string
	Boosts []typeahead.Boost
}

// Parse turns one protocol line into a Command.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}

	switch fields[0] {
	case "ADD":
		return parseAdd(fields[1:])
	case "DEL":
		if len(fields) != 2 {
			return Command{}, malformed("DEL takes exactly one id, got %d fields", len(fields)-1)
		}
		return Command{Kind: KindDelete, ID: fields[1]}, nil
	case "QUERY":
		return parseQuery(fields[1:])
	case "WQUERY":
		return parseWeightedQuery(fields[1:])
	}
	return Command{}, fmt.Errorf("%q: %w", fields[0], ErrUnknownCommand)
}

func parseAdd(args []string) (Command, error) {
	if len(args) < 3 {
		return Command{}, malformed("ADD needs type, id and score")
	}
	score, err := strconv.ParseFloat(args[2], 64)
	if err != nil || math.IsNaN(score) {
		return Command{}, malformed("ADD score %q is not a number", args[2])
	}
	return Command{
		Kind:   KindAdd,
		Type:   args[0],
		ID:     args[1],
		Score:  score,
		Tokens: utils.LowerTokens(args[3:]),
	}, nil
}

func parseQuery(args []string) (Command, error) {
	if len(args) < 1 {
		return Command{}, malformed("QUERY needs a result count")
	}
	count, err := parseCount(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{
		Kind:   KindQuery,
		Count:  count,
		Tokens: utils.LowerTokens(args[1:]),
	}, nil
}

func parseWeightedQuery(args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, malformed("WQUERY needs a result count and a boost count")
	}
	count, err := parseCount(args[0])
	if err != nil {
		return Command{}, err
	}
	numBoosts, err := strconv.Atoi(args[1])
	if err != nil || numBoosts < 0 {
		return Command{}, malformed("WQUERY boost count %q is not a non-negative integer", args[1])
	}
	if len(args) < 2+numBoosts {
		return Command{}, malformed("WQUERY announces %d boosts but has %d fields left", numBoosts, len(args)-2)
	}

	boosts := make([]typeahead.Boost, 0, numBoosts)
	for _, raw := range args[2 : 2+numBoosts] {
		b, err := ParseBoost(raw)
		if err != nil {
			return Command{}, err
		}
		boosts = append(boosts, b)
	}

	return Command{
		Kind:   KindWeightedQuery,
		Count:  count,
		Boosts: boosts,
		Tokens: utils.LowerTokens(args[2+numBoosts:]),
	}, nil
}

// ParseBoost parses a "key:multiplier" pair. The key is everything before
// the last colon so ids containing colons still work.
func ParseBoost(raw string) (typeahead.Boost, error) {
	i := strings.LastIndexByte(raw, ':')
	if i <= 0 || i == len(raw)-1 {
		return typeahead.Boost{}, malformed("boost %q is not key:multiplier", raw)
	}
	m, err := strconv.ParseFloat(raw[i+1:], 64)
	if err != nil || math.IsNaN(m) {
		return typeahead.Boost{}, malformed("boost %q has a bad multiplier", raw)
	}
	return typeahead.Boost{Key: raw[:i], Multiplier: m}, nil
}

func parseCount(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, malformed("result count %q is not an integer", raw)
	}
	return n, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrMalformed)
}

// Execute applies cmd to engine. Queries return their formatted output and
// true; mutations return "" and false.
func Execute(engine typeahead.IEngine, cmd Command) (string, bool, error) {
	switch cmd.Kind {
	case KindAdd:
		return "", false, engine.Add(cmd.Type, cmd.ID, cmd.Score, cmd.Tokens)
	case KindDelete:
		engine.Delete(cmd.ID)
		return "", false, nil
	case KindQuery:
		ids, err := engine.Query(cmd.Count, cmd.Tokens)
		if err != nil {
			return "", false, err
		}
		return FormatIDs(ids), true, nil
	case KindWeightedQuery:
		ids, err := engine.WeightedQuery(cmd.Count, cmd.Tokens, cmd.Boosts)
		if err != nil {
			return "", false, err
		}
		return FormatIDs(ids), true, nil
	}
	return "", false, fmt.Errorf("%v: %w", cmd.Kind, ErrUnknownCommand)
}

// FormatIDs renders query results as a single space-joined line.
func FormatIDs(ids []string) string {
	return strings.Join(ids, " ")
}
