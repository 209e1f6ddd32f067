// Zaparoo Countdown
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Countdown.
//
// Zaparoo Countdown is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Countdown is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Countdown.  If not, see <http://www.gnu.org/licenses/>.

// Package api serves the countdown over HTTP: JSON-RPC 2.0 on a WebSocket
// or POST at /api, a small REST surface for controllers and overlays, and
// the video library for display surfaces.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/overlay"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/sessions"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	// SessionHeader selects the session of a request. The session param of
	// a JSON-RPC call takes precedence.
	SessionHeader = "X-Session-ID"
	// SessionQuery selects the session of a WebSocket connection.
	SessionQuery = "session"

	maxRequestSize     = 1 << 20
	maxLoggedContent   = 100
	notificationBuffer = 500
	shutdownTimeout    = 5 * time.Second
	sessionKey         = "session"
)

var (
	JSONRPCErrorParseError = models.ErrorObject{
		Code:    -32700,
		Message: "Parse error",
	}
	JSONRPCErrorInvalidRequest = models.ErrorObject{
		Code:    -32600,
		Message: "Invalid Request",
	}
	JSONRPCErrorMethodNotFound = models.ErrorObject{
		Code:    -32601,
		Message: "Method not found",
	}
	JSONRPCErrorInvalidParams = models.ErrorObject{
		Code:    -32602,
		Message: "Invalid params",
	}
	JSONRPCErrorInternalError = models.ErrorObject{
		Code:    -32603,
		Message: "Internal error",
	}
	JSONRPCErrorServerError = models.ErrorObject{
		Code:    -32000,
		Message: "Server error",
	}
)

// Options are the collaborators of a Server. Sessions, Library and Cache
// may be nil in tests; methods needing them report an error.
type Options struct {
	Config   *config.Instance
	Sessions *sessions.Manager
	Library  *videos.Library
	Cache    *videos.Cache
	Broker   *broker.Broker
	Methods  *MethodMap
	LogDir   string
}

type Server struct {
	cfg      *config.Instance
	sessions *sessions.Manager
	library  *videos.Library
	cache    *videos.Cache
	broker   *broker.Broker
	methods  *MethodMap
	melody   *melody.Melody
	limiter  *middleware.IPRateLimiter
	filter   *middleware.IPFilter
	done     chan struct{}
	addr     string
	logDir   string
}

//nolint:gocritic // options copied on construction
func NewServer(opts Options) *Server {
	mm := opts.Methods
	if mm == nil {
		mm = DefaultMethods()
	}
	m := melody.New()
	m.Config.MaxMessageSize = maxRequestSize
	m.Upgrader.CheckOrigin = func(_ *http.Request) bool { return true }

	return &Server{
		cfg:      opts.Config,
		sessions: opts.Sessions,
		library:  opts.Library,
		cache:    opts.Cache,
		broker:   opts.Broker,
		methods:  mm,
		melody:   m,
		limiter:  middleware.NewIPRateLimiter(),
		filter:   middleware.NewIPFilter(opts.Config.AllowedIPs()),
		logDir:   opts.LogDir,
		done:     make(chan struct{}),
	}
}

// Addr is the address the server is listening on once Start returns.
func (s *Server) Addr() string {
	return s.addr
}

// Done is closed when the server has shut down.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Start binds the listener and serves in the background until ctx is
// cancelled. Connections are accepted as soon as Start returns.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.APIListen())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.APIListen(), err)
	}
	s.addr = ln.Addr().String()

	srv := &http.Server{
		Handler:           s.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.limiter.StartCleanup(ctx)
	if s.broker != nil {
		notifications, id := s.broker.Subscribe(notificationBuffer)
		go func() {
			s.broadcastNotifications(ctx, notifications)
			s.broker.Unsubscribe(id)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	go func() {
		defer close(s.done)
		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("api server stopped")
			}
			return
		}
		log.Debug().Msg("closing HTTP server via context cancellation")
		if err := s.melody.Close(); err != nil {
			log.Debug().Err(err).Msg("closing websocket sessions")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down api server")
		}
	}()

	log.Info().Str("addr", s.addr).Msg("api server listening")
	return nil
}

// Router builds the HTTP routes. ctx bounds request handling.
func (s *Server) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HTTPIPFilterMiddleware(s.filter))
	r.Use(privateNetworkAccessMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", SessionHeader},
		ExposedHeaders: []string{},
	}))

	s.melody.HandleConnect(func(ms *melody.Session) {
		if id := ms.Request.URL.Query().Get(SessionQuery); id != "" {
			ms.Set(sessionKey, id)
		} else if id := ms.Request.Header.Get(SessionHeader); id != "" {
			ms.Set(sessionKey, id)
		}
		log.Debug().Str("addr", ms.Request.RemoteAddr).Msg("websocket client connected")
	})
	s.melody.HandleMessage(middleware.WebSocketRateLimitHandler(s.limiter, s.handleWSMessage(ctx)))

	r.Group(func(r chi.Router) {
		r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))

		wsHandler := func(w http.ResponseWriter, r *http.Request) {
			if err := s.melody.HandleRequest(w, r); err != nil {
				log.Error().Err(err).Msg("handling websocket request")
			}
		}
		r.Get("/api", wsHandler)
		r.Get("/api/v0.1", wsHandler)
		r.Post("/api", s.handlePostRequest(ctx))
		r.Post("/api/v0.1", s.handlePostRequest(ctx))

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.NoCache)
			r.Use(chimiddleware.Timeout(config.APIRequestTimeout))
			s.restRoutes(r)
		})
	})

	if s.library != nil {
		fileServer := http.StripPrefix(
			strings.TrimSuffix(overlay.VideosPath, "/"),
			http.FileServer(s.library.FileSystem()),
		)
		r.Get(overlay.VideosPath+"*", fileServer.ServeHTTP)
	}

	return r
}

func (s *Server) allowedOrigins() []string {
	if origins := s.cfg.AllowedOrigins(); len(origins) > 0 {
		return origins
	}
	return []string{"https://*", "http://*", "capacitor://*"}
}

// privateNetworkAccessMiddleware answers Private Network Access preflights.
func privateNetworkAccessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Private-Network") == "true" {
			w.Header().Set("Access-Control-Allow-Private-Network", "true")
		}
		next.ServeHTTP(w, r)
	})
}

// env builds the handler environment for a request. requested is the
// session asked for by the connection or header; a session param in the
// call overrides it.
func (s *Server) env(
	ctx context.Context,
	remoteAddr string,
	requested string,
	params json.RawMessage,
) (requests.RequestEnv, error) {
	env := requests.RequestEnv{
		Context:  ctx,
		Config:   s.cfg,
		Sessions: s.sessions,
		Library:  s.library,
		Cache:    s.cache,
		LogDir:   s.logDir,
		Params:   params,
		IsLocal:  middleware.IsLoopbackAddr(remoteAddr),
	}
	if s.sessions == nil {
		return env, nil
	}

	id := requested
	if p := sessionParam(params); p != "" {
		id = p
	}
	session, err := s.sessions.Get(id)
	if err != nil {
		return env, fmt.Errorf("resolving session: %w", err)
	}
	env.Session = session
	return env, nil
}

// sessionParam reads the session field of object params, ignoring anything
// it can't read.
func sessionParam(params json.RawMessage) string {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	var p struct {
		Session string `json:"session"`
	}
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return ""
	}
	return p.Session
}

// errorObject maps a handler error to a JSON-RPC error.
func errorObject(err error) models.ErrorObject {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams),
		errors.Is(err, videos.ErrInvalidPath),
		errors.Is(err, sessions.ErrInvalidID):
		return models.ErrorObject{Code: JSONRPCErrorInvalidParams.Code, Message: err.Error()}
	case restStatus(err) == http.StatusServiceUnavailable:
		return models.ErrorObject{Code: JSONRPCErrorInternalError.Code, Message: err.Error()}
	default:
		return models.ErrorObject{Code: JSONRPCErrorServerError.Code, Message: err.Error()}
	}
}

// processRequest runs one JSON-RPC message. It returns nil when no reply
// is due: for notifications and for responses sent by the client.
func (s *Server) processRequest(
	ctx context.Context,
	remoteAddr string,
	requested string,
	msg []byte,
) *models.ResponseObject {
	if !json.Valid(msg) {
		log.Error().Msg("data not valid json")
		return errorResponse(models.NullRPCID, JSONRPCErrorParseError)
	}

	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil {
		log.Error().Err(err).Msg("message does not match known types")
		return errorResponse(models.NullRPCID, JSONRPCErrorInvalidRequest)
	}

	id := models.NullRPCID
	if !req.ID.IsAbsent() {
		id = *req.ID
	}

	if req.JSONRPC != "2.0" {
		log.Error().Str("jsonrpc", req.JSONRPC).Msg("unsupported payload version")
		return errorResponse(id, JSONRPCErrorInvalidRequest)
	}

	if req.Method == "" {
		if !req.ID.IsAbsent() {
			log.Debug().Str("id", req.ID.String()).Msg("received response, ignoring")
			return nil
		}
		return errorResponse(id, JSONRPCErrorInvalidRequest)
	}

	notification := req.ID.IsAbsent()
	logSafeRequest(req)

	fn, ok := s.methods.GetMethod(req.Method)
	if !ok {
		log.Warn().Str("method", req.Method).Msg("unknown method")
		if notification {
			return nil
		}
		return errorResponse(id, JSONRPCErrorMethodNotFound)
	}

	env, err := s.env(ctx, remoteAddr, requested, req.Params)
	if err != nil {
		log.Warn().Err(err).Str("method", req.Method).Msg("invalid session")
		if notification {
			return nil
		}
		return errorResponse(id, errorObject(err))
	}
	env.ID = id

	result, err := fn(env)
	if notification {
		if err != nil {
			log.Warn().Err(err).Str("method", req.Method).Msg("error handling notification")
		}
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Msg("error handling request")
		return errorResponse(id, errorObject(err))
	}

	logSafeResponse(result)
	return &models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

func errorResponse(id models.RPCID, obj models.ErrorObject) *models.ResponseObject {
	log.Debug().Int("code", obj.Code).Str("message", obj.Message).Msg("sending error")
	return &models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &obj,
	}
}

// marshalResponse encodes a response. Error responses omit result.
func marshalResponse(resp *models.ResponseObject) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if resp.Error != nil {
		data, err = json.Marshal(models.ResponseErrorObject{
			JSONRPC: resp.JSONRPC,
			ID:      resp.ID,
			Error:   resp.Error,
		})
	} else {
		data, err = json.Marshal(resp)
	}
	if err != nil {
		return nil, fmt.Errorf("error marshalling response: %w", err)
	}
	return data, nil
}

func (s *Server) handleWSMessage(ctx context.Context) func(*melody.Session, []byte) {
	return func(session *melody.Session, msg []byte) {
		// heartbeat
		if bytes.Equal(msg, []byte("ping")) {
			if err := session.Write([]byte("pong")); err != nil {
				log.Error().Err(err).Msg("sending pong")
			}
			return
		}

		var id string
		if v, ok := session.Get(sessionKey); ok {
			id, _ = v.(string)
		}
		resp := s.processRequest(ctx, session.Request.RemoteAddr, id, msg)
		if resp == nil {
			return
		}
		data, err := marshalResponse(resp)
		if err != nil {
			log.Error().Err(err).Msg("error marshalling response")
			return
		}
		if err := session.Write(data); err != nil {
			log.Error().Err(err).Msg("error sending response")
		}
	}
}

// handlePostRequest serves JSON-RPC over plain HTTP. JSON-RPC errors are
// returned with status 200; notifications get 204.
func (s *Server) handlePostRequest(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")
		if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(r.Body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		reqCtx, cancel := mergeContext(ctx, r.Context())
		defer cancel()

		resp := s.processRequest(reqCtx, r.RemoteAddr, r.Header.Get(SessionHeader), buf.Bytes())
		if resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		data, err := marshalResponse(resp)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			log.Error().Err(err).Msg("error writing response")
		}
	}
}

// mergeContext is cancelled when either parent is.
func mergeContext(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// broadcastNotifications forwards notifications to WebSocket clients. A
// client bound to a session only receives that session's notifications
// plus those that belong to no session.
func (s *Server) broadcastNotifications(ctx context.Context, notifications <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(models.RequestObject{
				JSONRPC: "2.0",
				Method:  n.Method,
				Params:  n.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification request")
				continue
			}

			target := sessionParam(n.Params)
			err = s.melody.BroadcastFilter(data, func(ms *melody.Session) bool {
				if target == "" {
					return true
				}
				v, ok := ms.Get(sessionKey)
				if !ok {
					return true
				}
				bound, _ := v.(string)
				normalized, err := sessions.NormalizeID(bound)
				return err != nil || normalized == target
			})
			if err != nil && !errors.Is(err, melody.ErrClosed) {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

func logSafeRequest(req models.RequestObject) { //nolint:gocritic // request logged by value
	log.Debug().
		Str("method", req.Method).
		Str("id", req.ID.String()).
		RawJSON("params", safeParams(req.Params)).
		Msg("received request")
}

func safeParams(params json.RawMessage) []byte {
	if len(params) == 0 || !json.Valid(params) {
		return []byte("null")
	}
	return params
}

// logSafeResponse logs a result, truncating log downloads.
func logSafeResponse(result any) {
	if resp, ok := result.(models.LogDownloadResponse); ok && len(resp.Content) > maxLoggedContent {
		resp.Content = fmt.Sprintf("%s... (truncated, %d more chars)",
			resp.Content[:maxLoggedContent], len(resp.Content)-maxLoggedContent)
		log.Debug().Interface("result", resp).Msg("sending response")
		return
	}
	log.Debug().Interface("result", result).Msg("sending response")
}
