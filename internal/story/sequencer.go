package story

import "github.com/couchcryptid/case-story-service/internal/domain"

// Sequencer steps through a story's annotations. The cursor never leaves
// [0, Len()-1]; a Sequencer is not safe for concurrent use.
type Sequencer struct {
	annotations []domain.Annotation
	cursor      int
}

// NewSequencer starts at the first annotation.
func NewSequencer(annotations []domain.Annotation) *Sequencer {
	return &Sequencer{annotations: annotations}
}

// Len returns the number of annotations, sentinel included.
func (s *Sequencer) Len() int { return len(s.annotations) }

// Cursor returns the current annotation index.
func (s *Sequencer) Cursor() int { return s.cursor }

// Reset moves back to the beginning.
func (s *Sequencer) Reset() { s.cursor = 0 }

// Step moves the cursor by delta and clamps it to the valid range. It
// returns the new cursor.
func (s *Sequencer) Step(delta int) int {
	if len(s.annotations) == 0 {
		s.cursor = 0
		return 0
	}
	s.cursor = s.clamp(s.cursor + delta)
	return s.cursor
}

// Seek moves the cursor to an absolute index, clamped.
func (s *Sequencer) Seek(cursor int) int {
	s.cursor = 0
	return s.Step(cursor)
}

// Current returns the annotation under the cursor.
func (s *Sequencer) Current() (domain.Annotation, bool) {
	if len(s.annotations) == 0 {
		return domain.Annotation{}, false
	}
	return s.annotations[s.cursor], true
}

// Position is the series index the chart is revealed up to when the cursor
// sits at cursor: the anchor of that annotation. Out-of-range cursors clamp.
func (s *Sequencer) Position(cursor int) int {
	if len(s.annotations) == 0 {
		return 0
	}
	return s.annotations[s.clamp(cursor)].AnchorIndex
}

// VisibleAt returns the annotations shown with the cursor at cursor, that one
// included.
func (s *Sequencer) VisibleAt(cursor int) []domain.Annotation {
	if len(s.annotations) == 0 {
		return nil
	}
	return s.annotations[:s.clamp(cursor)+1]
}

func (s *Sequencer) clamp(cursor int) int {
	return min(max(cursor, 0), len(s.annotations)-1)
}
