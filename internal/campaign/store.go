// Package campaign keeps the campaign list in process memory. Nothing
// survives a restart.
package campaign

import (
	"maps"
	"sync"

	"postboard/internal/models"
)

// Store owns the campaign list and its id counter.
type Store struct {
	mu        sync.Mutex
	campaigns []models.Campaign
	counter   int
}

// NewStore returns a store seeded with the two launch campaigns.
func NewStore() *Store {
	return &Store{
		campaigns: []models.Campaign{
			models.NewCampaign(1, "Summer Launch"),
			models.NewCampaign(2, "Winter Launch"),
		},
		counter: 2,
	}
}

// List returns a snapshot of every campaign in insertion order.
func (s *Store) List() []models.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Campaign, len(s.campaigns))
	for i, c := range s.campaigns {
		out[i] = maps.Clone(c)
	}
	return out
}

// Get returns the first campaign with id.
func (s *Store) Get(id int) (models.Campaign, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.campaigns {
		if c.HasID(id) {
			return maps.Clone(c), true
		}
	}
	return nil, false
}

// Create appends a campaign with the next id.
func (s *Store) Create(name any) models.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	c := models.NewCampaign(s.counter, name)
	s.campaigns = append(s.campaigns, c)
	return maps.Clone(c)
}

// Replace overwrites every campaign whose id matches with doc, stored as given.
// It reports whether anything matched.
func (s *Store) Replace(id int, doc models.Campaign) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.campaigns {
		if s.campaigns[i].HasID(id) {
			s.campaigns[i] = maps.Clone(doc)
			found = true
		}
	}
	return found
}

// Delete removes the first campaign with id and returns it.
func (s *Store) Delete(id int) (models.Campaign, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.campaigns {
		if c.HasID(id) {
			s.campaigns = append(s.campaigns[:i], s.campaigns[i+1:]...)
			return c, true
		}
	}
	return nil, false
}
