// Package model provides shared estimator state management.
//
// Every estimator in this module (feature expanders, regression models)
// carries a StateManager by composition and consults it before prediction
// or transformation, so that an untrained model can never silently produce
// output:
//
//	type PolyRegression struct {
//		State *model.StateManager
//		...
//	}
//
//	if !m.State.IsFitted() {
//		return nil, errors.NewNotFittedError("PolyRegression", "Predict")
//	}
package model

import "sync"

// StateManager tracks whether an estimator has been fitted and the
// dimensions of its training data. Safe for concurrent readers.
type StateManager struct {
	mu        sync.RWMutex
	fitted    bool
	nFeatures int
	nSamples  int
}

// NewStateManager creates an unfitted StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether the estimator has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the estimator as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
}

// Reset returns the estimator to the unfitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
	s.nSamples = 0
}

// SetDimensions records the training data shape.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// Dimensions returns the recorded (nFeatures, nSamples).
func (s *StateManager) Dimensions() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}
