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

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/methods"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/sessions"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type restError struct {
	Error string `json:"error"`
}

// restRoutes mirrors the JSON-RPC methods for controllers and overlays
// that speak plain HTTP. POST bodies are the method params.
func (s *Server) restRoutes(r chi.Router) {
	r.Get("/api/status", s.restMethod(methods.HandleTimerStatus))
	r.Post("/api/start", s.restMethod(methods.HandleTimerStart))
	r.Post("/api/pause", s.restMethod(methods.HandleTimerPause))
	r.Post("/api/resume", s.restMethod(methods.HandleTimerResume))
	r.Post("/api/reset", s.restMethod(methods.HandleTimerReset))
	r.Post("/api/language", s.restMethod(methods.HandleTimerLanguage))

	r.Route("/api/entertaining", func(r chi.Router) {
		r.Get("/videos", s.restMethod(methods.HandleVideos))
		r.Get("/status", s.restMethod(methods.HandleEntertainmentStatus))
		r.Get("/public", s.restMethod(func(env requests.RequestEnv) (any, error) {
			return methods.PublicState(env)
		}))
		r.Post("/mark-used", s.restMethod(methods.HandleMarkUsed))
		r.Post("/reset-used", s.restMethod(methods.HandleResetUsed))
		r.Post("/enabled", s.restMethod(methods.HandleEntertainmentEnabled))
	})

	r.Post("/api/overlay/ended", s.restMethod(methods.HandleOverlayEnded))
	r.Get("/api/sessions", s.restMethod(methods.HandleSessions))
	r.Get("/api/version", s.restMethod(methods.HandleVersion))
}

func (s *Server) restMethod(fn MethodFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params json.RawMessage
		if r.Method == http.MethodPost {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(r.Body); err != nil {
				writeJSON(w, http.StatusRequestEntityTooLarge, restError{Error: "request too large"})
				return
			}
			body := bytes.TrimSpace(buf.Bytes())
			if len(body) > 0 {
				if !json.Valid(body) {
					writeJSON(w, http.StatusBadRequest, restError{Error: "body is not valid JSON"})
					return
				}
				params = body
			}
		}

		requested := r.Header.Get(SessionHeader)
		if q := r.URL.Query().Get(SessionQuery); q != "" {
			requested = q
		}

		env, err := s.env(r.Context(), r.RemoteAddr, requested, params)
		if err != nil {
			writeRESTError(w, r, err)
			return
		}

		result, err := fn(env)
		if err != nil {
			writeRESTError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func restStatus(err error) int {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams),
		errors.Is(err, videos.ErrInvalidPath),
		errors.Is(err, sessions.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, methods.ErrNotLocal):
		return http.StatusForbidden
	case errors.Is(err, methods.ErrNoLibrary), errors.Is(err, methods.ErrNoSession),
		errors.Is(err, sessions.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeRESTError(w http.ResponseWriter, r *http.Request, err error) {
	status := restStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("error handling rest request")
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected rest request")
	}
	writeJSON(w, status, restError{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("error marshalling rest response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("error writing rest response")
	}
}
