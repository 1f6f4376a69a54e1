package typeahead

import "errors"

// ErrInvalidArgument is returned when a caller breaks an operation's input
// contract (negative counts, empty ids or tokens, negative or non-finite scores
// and multipliers).
var ErrInvalidArgument = errors.New("invalid argument")
