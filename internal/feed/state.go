// Package feed drives a paginated, searchable post list: the page state, the
// fetch-filter-render pipeline, and the controller that ties user actions to
// both.
package feed

import "postboard/internal/models"

// DefaultMaxVisiblePages caps navigation when nothing else is configured.
const DefaultMaxVisiblePages = 50

// State holds the current page number and the latest pagination metadata.
// The page number never drops below 1 and, after every navigation, never
// exceeds min(pageCount, maxVisible). State is not safe for concurrent use;
// the Controller serializes access.
type State struct {
	maxVisible int
	current    int
	meta       *models.PaginationMetadata
}

// NewState returns a state on page 1.
func NewState(maxVisible int) *State {
	if maxVisible < 1 {
		maxVisible = DefaultMaxVisiblePages
	}
	return &State{maxVisible: maxVisible, current: 1}
}

// Current is the page being shown or loaded.
func (s *State) Current() int {
	return s.current
}

// Metadata is the last metadata recorded, or nil before the first response.
func (s *State) Metadata() *models.PaginationMetadata {
	return s.meta
}

// MaxVisible is the configured navigation cap.
func (s *State) MaxVisible() int {
	return s.maxVisible
}

// MaxAllowed is the highest page navigation may reach. Without metadata only
// the cap applies. A page count of 0 (empty result) counts as 1.
func (s *State) MaxAllowed() int {
	if s.meta == nil {
		return s.maxVisible
	}
	return min(max(s.meta.PageCount, 1), s.maxVisible)
}

// EffectivePageCount is the page count shown to the user.
func (s *State) EffectivePageCount() int {
	return s.MaxAllowed()
}

// Clamp returns requested constrained to [1, MaxAllowed] without changing state.
func (s *State) Clamp(requested int) int {
	return max(1, min(requested, s.MaxAllowed()))
}

// ClampAndSet clamps requested, makes it the current page and returns it.
func (s *State) ClampAndSet(requested int) int {
	s.current = s.Clamp(requested)
	return s.current
}

// RecordMetadata replaces the stored metadata. Nil leaves it untouched.
func (s *State) RecordMetadata(meta *models.PaginationMetadata) {
	if meta == nil {
		return
	}
	copied := *meta
	s.meta = &copied
}

// Reset returns to page 1, as a new search does.
func (s *State) Reset() {
	s.current = 1
}
