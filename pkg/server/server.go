package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/typeahead/internal/metrics"
	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/config"
	"github.com/bastiangx/typeahead/pkg/typeahead"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/time/rate"
)

const (
	codeBadRequest = 400
	codeThrottled  = 429
	codeInternal   = 500
)

// Server handles the IPC for typeahead requests
type Server struct {
	engine  typeahead.IEngine
	config  *config.Config
	decoder *msgpack.Decoder
	writer  *bufio.Writer
	encoder *msgpack.Encoder
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  *log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics counts throttled requests.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a server reading requests from r and writing responses to w
func NewServer(engine typeahead.IEngine, cfg *config.Config, r io.Reader, w io.Writer, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	bw := bufio.NewWriter(w)
	s := &Server{
		engine:  engine,
		config:  cfg,
		decoder: msgpack.NewDecoder(bufio.NewReader(r)),
		writer:  bw,
		encoder: msgpack.NewEncoder(bw),
		logger:  log.Default(),
	}
	if cfg.Server.RateLimit > 0 {
		burst := cfg.Server.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start processes requests until EOF or ctx is done
func (s *Server) Start(ctx context.Context) error {
	s.logger.Debug("Starting IPC server")
	if err := s.send(AckResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var req Request
		if err := s.decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("Client closed input")
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Warn("Truncated request at end of input")
				return nil
			}
			s.logger.Errorf("Decoding request: %v", err)
			if sendErr := s.sendError("", "invalid msgpack request", codeBadRequest); sendErr != nil {
				return sendErr
			}
			continue
		}

		if err := s.handleRequest(req); err != nil {
			return err
		}
	}
}

// handleRequest dispatches one request; only write failures are returned
func (s *Server) handleRequest(req Request) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if s.limiter != nil && !s.limiter.Allow() {
		if s.metrics != nil {
			s.metrics.ThrottledTotal.Inc()
		}
		s.logger.Debug("Throttled request", "id", req.ID)
		return s.sendError(req.ID, "rate limit exceeded", codeThrottled)
	}

	switch req.Action {
	case "add":
		return s.handleAdd(req)
	case "del":
		existed := s.engine.Delete(req.ItemID)
		return s.send(AckResponse{ID: req.ID, Status: "ok", Existed: existed})
	case "query":
		return s.handleQuery(req)
	case "terms":
		return s.handleTerms(req)
	case "stats":
		st := s.engine.Stats()
		return s.send(StatsResponse{ID: req.ID, Items: st.Items, Created: st.Created, Nodes: st.Nodes, Terms: st.Terms})
	case "health":
		return s.send(AckResponse{ID: req.ID, Status: "ok"})
	}
	return s.sendError(req.ID, fmt.Sprintf("unknown action: %q", req.Action), codeBadRequest)
}

func (s *Server) handleAdd(req Request) error {
	tokens, msg := s.normalizeTokens(req.Tokens)
	if msg != "" {
		return s.sendError(req.ID, msg, codeBadRequest)
	}
	if err := s.engine.Add(req.Type, req.ItemID, req.Score, tokens); err != nil {
		return s.sendEngineError(req.ID, err)
	}
	return s.send(AckResponse{ID: req.ID, Status: "ok"})
}

func (s *Server) handleQuery(req Request) error {
	tokens, msg := s.normalizeTokens(req.Tokens)
	if msg != "" {
		return s.sendError(req.ID, msg, codeBadRequest)
	}
	if maxTokens := s.config.Server.MaxTokens; maxTokens > 0 && len(tokens) > maxTokens {
		return s.sendError(req.ID, fmt.Sprintf("query has %d tokens, maximum is %d", len(tokens), maxTokens), codeBadRequest)
	}

	boosts := make([]typeahead.Boost, len(req.Boosts))
	for i, b := range req.Boosts {
		boosts[i] = typeahead.Boost{Key: b.Key, Multiplier: b.Multiplier}
	}

	start := time.Now()
	results, err := s.engine.ScoredQuery(s.limit(req.Limit), tokens, boosts)
	elapsed := time.Since(start)
	if err != nil {
		return s.sendEngineError(req.ID, err)
	}

	out := make([]QueryResult, len(results))
	for i, r := range results {
		out[i] = QueryResult{ID: r.ID, Score: r.Score}
	}
	s.logger.Debugf("Query %v took [ %v ] for %d results", tokens, elapsed, len(out))

	return s.send(QueryResponse{
		ID:        req.ID,
		Results:   out,
		Count:     len(out),
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleTerms(req Request) error {
	prefix := utils.LowerTokens([]string{req.Prefix})[0]
	terms := s.engine.Terms(prefix, s.limit(req.Limit))

	out := make([]TermEntry, len(terms))
	for i, t := range terms {
		out[i] = TermEntry{Token: t.Token, Count: t.Count}
	}
	return s.send(TermsResponse{ID: req.ID, Terms: out, Count: len(out)})
}

// limit applies the configured default and clamps to max_limit; negative
// values pass through so the engine rejects them.
func (s *Server) limit(requested int) int {
	if requested == 0 {
		requested = s.config.Engine.DefaultLimit
	}
	if maxLimit := s.config.Server.MaxLimit; maxLimit > 0 && requested > maxLimit {
		return maxLimit
	}
	return requested
}

// normalizeTokens lower-cases tokens and reports the first invalid one.
func (s *Server) normalizeTokens(raw []string) ([]string, string) {
	tokens := utils.LowerTokens(raw)
	for i, t := range tokens {
		if !utils.IsValidToken(t, s.config.Server.MaxTokenLen) {
			return nil, fmt.Sprintf("invalid token at position %d: %q", i, raw[i])
		}
	}
	return tokens, ""
}

func (s *Server) sendEngineError(id string, err error) error {
	if errors.Is(err, typeahead.ErrInvalidArgument) {
		return s.sendError(id, err.Error(), codeBadRequest)
	}
	s.logger.Errorf("Engine error: %v", err)
	return s.sendError(id, err.Error(), codeInternal)
}

// send encodes one response and flushes it so the client sees it at once
func (s *Server) send(response any) error {
	if err := s.encoder.Encode(response); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
		return err
	}
	return s.writer.Flush()
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) error {
	return s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
