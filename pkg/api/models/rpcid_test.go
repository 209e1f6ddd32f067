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

package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCID_Unmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
		null    bool
	}{
		{name: "string", input: `"abc"`, want: `"abc"`},
		{name: "number", input: `12345`, want: `12345`},
		{name: "null", input: `null`, want: `null`, null: true},
		{name: "object rejected", input: `{"a":1}`, wantErr: true},
		{name: "array rejected", input: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var id RPCID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRPCID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
			assert.Equal(t, tt.null, id.IsNull())
		})
	}
}

func TestRequestObject_IDEchoedExactly(t *testing.T) {
	t.Parallel()

	var req RequestObject
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":7,"method":"timer.status"}`), &req))
	require.NotNil(t, req.ID)

	resp := ResponseObject{JSONRPC: "2.0", ID: *req.ID, Result: "ok"}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"result":"ok"}`, string(data))
}

func TestRequestObject_MissingID(t *testing.T) {
	t.Parallel()

	var req RequestObject
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"overlay.ended"}`), &req))
	assert.True(t, req.ID.IsAbsent())
}

func TestNewStringID(t *testing.T) {
	t.Parallel()

	raw := uuid.New().String()
	id := NewStringID(raw)
	assert.Equal(t, `"`+raw+`"`, id.String())
	assert.True(t, id.Equal(NewStringID(raw)))
	assert.False(t, id.Equal(NullRPCID))
}

func TestRPCID_MarshalEmpty(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(RPCID{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
