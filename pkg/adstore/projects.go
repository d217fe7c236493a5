// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package adstore

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/adxyz/adnet/pkg/ids"
	"github.com/adxyz/adnet/pkg/log"
)

// RegisterProject records a publisher project. Registering an existing id
// fails without touching the existing record.
func (s *Store) RegisterProject(caller ids.Principal, id, contact string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.Wrap(ErrInvalidInput, "empty project id")
	}
	if caller.IsAnonymous() {
		return errors.Wrap(ErrInvalidInput, "anonymous caller")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; ok {
		return errors.Wrapf(ErrAlreadyExists, "project %q", id)
	}

	p := &Project{ID: id, Owner: caller, Contact: contact}
	s.projects[id] = p
	if err := s.persistProject(p); err != nil {
		delete(s.projects, id)
		return err
	}

	s.record("registerProject", caller, "project %q", id)
	s.log.Info("project registered", log.String("project", id))
	return nil
}

// CashOutProject resets the project's accrued view count to zero and
// returns the count that was cashed. Zero is a valid result and repeating
// the call without intervening views yields zero again.
func (s *Store) CashOutProject(caller ids.Principal, id string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return 0, errors.Wrapf(ErrNotFound, "project %q", id)
	}
	if p.Owner != caller {
		return 0, errors.Wrapf(ErrNotOwner, "project %q", id)
	}

	views := p.Views
	if views == 0 {
		return 0, nil
	}

	p.Views = 0
	if err := s.persistProject(p); err != nil {
		p.Views = views
		return 0, err
	}

	s.record("cashOutProject", caller, "project %q views %d", id, views)
	return views, nil
}

// CashOutAllProjects cashes out every project the caller owns and returns
// the total views cashed. Either all owned projects are cashed or none: a
// persist failure rolls the counts already reset in this call back, so no
// views are ever reset without being reported to the caller for credit.
func (s *Store) CashOutAllProjects(caller ids.Principal) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		done  []*Project
		prior []uint64
		total uint64
	)
	for _, p := range s.projects {
		if p.Owner != caller || p.Views == 0 {
			continue
		}
		views := p.Views
		p.Views = 0
		if err := s.persistProject(p); err != nil {
			p.Views = views
			for i, dp := range done {
				dp.Views = prior[i]
				if perr := s.persistProject(dp); perr != nil {
					s.log.Error("restoring project after failed cash-out",
						log.String("project", dp.ID),
						log.Error(perr))
				}
			}
			return 0, errors.Wrapf(err, "cashing out project %q", p.ID)
		}
		done = append(done, p)
		prior = append(prior, views)
		total += views
	}

	if total > 0 {
		s.record("cashOutAllProjects", caller, "views %d", total)
	}
	return total, nil
}

// ProjectByID returns the project with the given id.
func (s *Store) ProjectByID(id string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{}, errors.Wrapf(ErrNotFound, "project %q", id)
	}
	return *p, nil
}

// AllProjects returns every project, ordered by id.
func (s *Store) AllProjects() []Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TotalViewsForProject returns the accrued, uncashed views of one project.
func (s *Store) TotalViewsForProject(id string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return 0
	}
	return p.Views
}

// TotalViewsForAllProjects sums accrued views across all projects.
func (s *Store) TotalViewsForAllProjects() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n uint64
	for _, p := range s.projects {
		n += p.Views
	}
	return n
}
