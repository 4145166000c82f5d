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

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/elastic/usersvc-monitoring/model"
	"github.com/elastic/usersvc-monitoring/store"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.elastic.co/fastjson"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v fastjson.Marshaler) {
	var jw fastjson.Writer
	if err := v.MarshalFastJSON(&jw); err != nil {
		s.logger.Errorf("failed to marshal response: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(jw.Bytes()); err != nil {
		s.logger.Debugf("failed to write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, &model.Error{Detail: detail})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, &model.Banner{
		Message: "Welcome to " + ServiceName,
		Health:  "/health",
		Metrics: s.metricsPath,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, &model.Health{
		Status:  "healthy",
		Service: ServiceName,
		Version: ServiceVersion,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}
	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil || limit <= 0 {
		s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	users, total := s.users.List(offset, limit)
	s.writeJSON(w, http.StatusOK, &model.UserList{
		Users:  users,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeUserRequest(w, r)
	if !ok {
		return
	}

	user, err := s.users.Create(req.Email, req.Name)
	if errors.Is(err, store.ErrAlreadyExists) {
		s.writeError(w, http.StatusConflict, "user with this email already exists")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	s.logger.Infof("created user %s", user.ID)
	s.writeJSON(w, http.StatusCreated, &user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	user, err := s.users.Get(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "user not found")
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "failed to fetch user")
	default:
		s.writeJSON(w, http.StatusOK, &user)
	}
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeUserRequest(w, r)
	if !ok {
		return
	}

	user, err := s.users.Update(id, req.Email, req.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, store.ErrAlreadyExists):
		s.writeError(w, http.StatusConflict, "user with this email already exists")
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "failed to update user")
	default:
		s.writeJSON(w, http.StatusOK, &user)
	}
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.users.Delete(id); errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	s.logger.Infof("deleted user %s", id)
	w.WriteHeader(http.StatusNoContent)
}

// decodeUserRequest reads and validates a create/update body, writing
// the error response itself when the body is rejected.
func (s *Server) decodeUserRequest(w http.ResponseWriter, r *http.Request) (model.UserRequest, bool) {
	var req model.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return req, false
	}
	if req.Email == "" {
		s.writeError(w, http.StatusBadRequest, "email is required")
		return req, false
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return req, false
	}
	return req, true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return "", false
	}
	return id, true
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
