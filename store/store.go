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

// Package store provides the in-memory users store backing the API.
// It keeps no durable state; the service's persistence layer is out
// of scope and the store exists as the instrumented surface.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/elastic/usersvc-monitoring/model"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no user exists under the given ID.
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyExists is returned when the email is already taken.
	ErrAlreadyExists = errors.New("user already exists")
)

// Users is a thread-safe in-memory users store. List order is
// insertion order, which keeps pagination deterministic.
type Users struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]string // email -> id
	order   []string
}

// NewUsers returns an empty store.
func NewUsers() *Users {
	return &Users{
		byID:    make(map[string]model.User),
		byEmail: make(map[string]string),
	}
}

// Create stores a new user with a generated ID.
func (s *Users) Create(email, name string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return model.User{}, ErrAlreadyExists
	}

	now := time.Now().UTC()
	u := model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID
	s.order = append(s.order, u.ID)
	return u, nil
}

// Get returns the user with the given ID.
func (s *Users) Get(id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// List returns a page of users in insertion order and the total count.
func (s *Users) List(offset, limit int) ([]model.User, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.order)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	page := make([]model.User, 0, end-offset)
	for _, id := range s.order[offset:end] {
		page = append(page, s.byID[id])
	}
	return page, total
}

// Update replaces the email and name of an existing user.
func (s *Users) Update(id, email, name string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	if owner, ok := s.byEmail[email]; ok && owner != id {
		return model.User{}, ErrAlreadyExists
	}

	delete(s.byEmail, u.Email)
	u.Email = email
	u.Name = name
	u.UpdatedAt = time.Now().UTC()
	s.byID[id] = u
	s.byEmail[email] = id
	return u, nil
}

// Delete removes the user with the given ID.
func (s *Users) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, u.Email)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored users.
func (s *Users) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
