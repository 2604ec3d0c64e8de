package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/slotscribe/slotscribe/pkg/audit"
	"github.com/slotscribe/slotscribe/pkg/integrity"
	"github.com/slotscribe/slotscribe/pkg/store"
	"github.com/slotscribe/slotscribe/pkg/trace"
	"github.com/slotscribe/slotscribe/pkg/verify"
)

const maxUploadBytes = 2 << 20

var hashPattern = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

// Server exposes verification and trace storage over HTTP.
type Server struct {
	store          store.TraceStore
	verifier       *verify.Verifier
	schema         *jsonschema.Schema
	logger         *slog.Logger
	audit          audit.Logger
	defaultCluster trace.Cluster
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger overrides the application logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithAuditLogger overrides the audit event sink.
func WithAuditLogger(l audit.Logger) ServerOption {
	return func(s *Server) { s.audit = l }
}

// WithDefaultCluster sets the cluster used when a verify request omits one.
func WithDefaultCluster(c trace.Cluster) ServerOption {
	return func(s *Server) { s.defaultCluster = c }
}

// NewServer wires the HTTP surface to its collaborators.
func NewServer(st store.TraceStore, v *verify.Verifier, opts ...ServerOption) (*Server, error) {
	schema, err := compileTraceSchema()
	if err != nil {
		return nil, err
	}
	s := &Server{
		store:          st,
		verifier:       v,
		schema:         schema,
		logger:         slog.Default(),
		audit:          audit.Nop(),
		defaultCluster: trace.ClusterDevnet,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Routes builds the request router with the standard middleware stack.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/verify", s.handleVerify)
	mux.HandleFunc("POST /v1/traces", s.handleUpload)
	mux.HandleFunc("GET /v1/traces", s.handleList)
	mux.HandleFunc("GET /v1/traces/{hash}", s.handleGetTrace)
	mux.HandleFunc("GET /v1/traces/{hash}/integrity", s.handleIntegrity)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return RequestID(mux)
}

func readAll(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verify.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&req); err != nil {
		WriteBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.Cluster == "" {
		req.Cluster = s.defaultCluster
	}

	resp, err := s.verifier.Verify(r.Context(), req)
	if err != nil {
		var clusterErr *trace.InvalidClusterError
		var internalErr *verify.InternalError
		switch {
		case errors.Is(err, verify.ErrMissingTarget):
			WriteBadRequest(w, "signature or hash is required")
		case errors.As(err, &clusterErr):
			WriteBadRequest(w, clusterErr.Error())
		case errors.As(err, &internalErr):
			s.logger.Error("verification internal error", "op", internalErr.Op, "error", internalErr.Err)
			WriteBadGateway(w, fmt.Sprintf("verification could not complete: %s failed", internalErr.Op))
		default:
			WriteInternal(w, err)
		}
		return
	}

	_ = s.audit.Record(r.Context(), audit.EventVerify, "verify", req.Signature, map[string]any{
		"cluster": string(req.Cluster),
		"hash":    req.Hash,
		"ok":      resp.Result.OK,
	})
	writeJSON(w, http.StatusOK, resp)
}

type uploadResponse struct {
	Hash      string `json:"hash"`
	Duplicate bool   `json:"duplicate"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body, err := readAll(w, r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		WriteBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if err := s.schema.Validate(raw); err != nil {
		WriteBadRequest(w, "trace validation failed: "+err.Error())
		return
	}

	var t trace.Trace
	if err := json.Unmarshal(body, &t); err != nil {
		WriteBadRequest(w, "invalid trace body: "+err.Error())
		return
	}

	if res := integrity.Validate(&t); !res.OK {
		// Tamper signal: the claimed digest does not match the payload.
		WriteUnprocessable(w, "hash verification failed: "+res.Error)
		return
	}

	// Accept-as-duplicate: content under this digest is immutable, so an
	// existing entry is never overwritten by an upload.
	if _, err := s.store.Get(r.Context(), t.PayloadHash); err == nil {
		writeJSON(w, http.StatusOK, uploadResponse{Hash: t.PayloadHash, Duplicate: true})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		WriteInternal(w, err)
		return
	}

	if err := s.store.Put(r.Context(), t.PayloadHash, &t); err != nil {
		WriteInternal(w, err)
		return
	}
	_ = s.audit.Record(r.Context(), audit.EventUpload, "upload", t.PayloadHash, map[string]any{
		"version": t.Version,
	})
	writeJSON(w, http.StatusCreated, uploadResponse{Hash: t.PayloadHash, Duplicate: false})
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if !hashPattern.MatchString(hash) {
		WriteBadRequest(w, "hash must be 64 hex characters")
		return
	}
	t, err := s.store.Get(r.Context(), hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, "no trace stored under hash "+hash)
			return
		}
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleIntegrity(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if !hashPattern.MatchString(hash) {
		WriteBadRequest(w, "hash must be 64 hex characters")
		return
	}
	t, err := s.store.Get(r.Context(), hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, "no trace stored under hash "+hash)
			return
		}
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, integrity.Validate(t))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}
	entries, err := s.store.List(r.Context(), limit)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"traces": entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
