/*
Package server implements msgpack IPC for the typeahead engine.

Clients write msgpack-encoded requests to the server's stdin and read one
msgpack-encoded response per request from its stdout. Every request carries
an "id" that is echoed back (generated when omitted) and an action "a".

Index an item:

	{"id": "r1", "a": "add", "ty": "user", "i": "u42", "sc": 3.5, "t": ["adam", "d'angelo"]}

Query with optional boosts; results are ranked by boosted score, newest first on ties:

	{"id": "r2", "a": "query", "l": 5, "t": ["ad"], "b": [{"k": "user", "m": 2.0}]}
	{"id": "r2", "r": [{"i": "u42", "s": 7}], "c": 1, "t": 38}

Remove an item, complete a partial token, or inspect the index:

	{"id": "r3", "a": "del", "i": "u42"}
	{"id": "r4", "a": "terms", "p": "ad", "l": 10}
	{"id": "r5", "a": "stats"}

Failures come back as {"id": ..., "e": message, "c": code} with code 400 for
bad input, 429 when throttled and 500 otherwise. Time taken is reported in
microseconds.
*/
package server

// Request is the single envelope for every action.
type Request struct {
	ID     string       `msgpack:"id"`
	Action string       `msgpack:"a"`
	Type   string       `msgpack:"ty,omitempty"`
	ItemID string       `msgpack:"i,omitempty"`
	Score  float64      `msgpack:"sc,omitempty"`
	Tokens []string     `msgpack:"t,omitempty"`
	Limit  int          `msgpack:"l,omitempty"`
	Boosts []BoostEntry `msgpack:"b,omitempty"`
	Prefix string       `msgpack:"p,omitempty"`
}

// BoostEntry - one key:multiplier rule
type BoostEntry struct {
	Key        string  `msgpack:"k"`
	Multiplier float64 `msgpack:"m"`
}

// QueryResult - ranked hit
type QueryResult struct {
	ID    string  `msgpack:"i"`
	Score float64 `msgpack:"s"`
}

// QueryResponse - query response
type QueryResponse struct {
	ID        string        `msgpack:"id"`
	Results   []QueryResult `msgpack:"r"`
	Count     int           `msgpack:"c"`
	TimeTaken int64         `msgpack:"t"`
}

// TermEntry - known token and how many items carry it
type TermEntry struct {
	Token string `msgpack:"w"`
	Count int    `msgpack:"n"`
}

// TermsResponse - token completion response
type TermsResponse struct {
	ID    string      `msgpack:"id"`
	Terms []TermEntry `msgpack:"w"`
	Count int         `msgpack:"c"`
}

// AckResponse - mutation and health response
type AckResponse struct {
	ID      string `msgpack:"id"`
	Status  string `msgpack:"status"`
	Existed bool   `msgpack:"existed,omitempty"`
}

// StatsResponse - index statistics
type StatsResponse struct {
	ID      string `msgpack:"id"`
	Items   int    `msgpack:"items"`
	Created uint64 `msgpack:"created"`
	Nodes   int    `msgpack:"nodes"`
	Terms   int    `msgpack:"terms"`
}

// ErrorResponse holds basic error information for failed requests
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
