// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package model holds the wire types of the users API. Responses are
// serialized with fastjson appenders.
package model

import (
	"time"

	"go.elastic.co/fastjson"
)

// User is a stored user.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) MarshalFastJSON(w *fastjson.Writer) error {
	w.RawByte('{')
	w.RawString(`"id":`)
	w.String(u.ID)
	w.RawString(`,"email":`)
	w.String(u.Email)
	w.RawString(`,"name":`)
	w.String(u.Name)
	w.RawString(`,"created_at":`)
	w.Time(u.CreatedAt, time.RFC3339Nano)
	w.RawString(`,"updated_at":`)
	w.Time(u.UpdatedAt, time.RFC3339Nano)
	w.RawByte('}')
	return nil
}

// UserList is a paginated page of users.
type UserList struct {
	Users  []User `json:"users"`
	Total  int    `json:"total"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

func (l *UserList) MarshalFastJSON(w *fastjson.Writer) error {
	w.RawString(`{"users":[`)
	for i := range l.Users {
		if i > 0 {
			w.RawByte(',')
		}
		if err := l.Users[i].MarshalFastJSON(w); err != nil {
			return err
		}
	}
	w.RawString(`],"total":`)
	w.Int64(int64(l.Total))
	w.RawString(`,"offset":`)
	w.Int64(int64(l.Offset))
	w.RawString(`,"limit":`)
	w.Int64(int64(l.Limit))
	w.RawByte('}')
	return nil
}

// UserRequest is the request body for creating or updating a user.
type UserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Health is the health check response.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func (h *Health) MarshalFastJSON(w *fastjson.Writer) error {
	w.RawString(`{"status":`)
	w.String(h.Status)
	w.RawString(`,"service":`)
	w.String(h.Service)
	w.RawString(`,"version":`)
	w.String(h.Version)
	w.RawByte('}')
	return nil
}

// Banner is the root endpoint response.
type Banner struct {
	Message string `json:"message"`
	Health  string `json:"health"`
	Metrics string `json:"metrics"`
}

func (b *Banner) MarshalFastJSON(w *fastjson.Writer) error {
	w.RawString(`{"message":`)
	w.String(b.Message)
	w.RawString(`,"health":`)
	w.String(b.Health)
	w.RawString(`,"metrics":`)
	w.String(b.Metrics)
	w.RawByte('}')
	return nil
}

// Error is the error response body, matching the {"detail": ...}
// shape clients of the service already consume.
type Error struct {
	Detail string `json:"detail"`
}

func (e *Error) MarshalFastJSON(w *fastjson.Writer) error {
	w.RawString(`{"detail":`)
	w.String(e.Detail)
	w.RawByte('}')
	return nil
}
