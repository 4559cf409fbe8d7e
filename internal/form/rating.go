package form

import "strconv"

// RatingState models the star widget: a committed 1-based value (what
// validation and submission read), a hover preview that never touches
// the committed value, and arrow-key adjustment clamped to [1, max].
type RatingState struct {
	Max       int
	Committed int // 0 means nothing selected yet
	Hover     int // 0 means no preview
}

// NewRatingState builds the state for a rating question with max stars.
func NewRatingState(max int) *RatingState {
	return &RatingState{Max: max}
}

// Select commits star i. Out-of-range values are ignored.
func (r *RatingState) Select(i int) {
	if i >= 1 && i <= r.Max {
		r.Committed = i
	}
}

// SetHover previews star i without committing it.
func (r *RatingState) SetHover(i int) {
	if i >= 1 && i <= r.Max {
		r.Hover = i
	}
}

// ClearHover ends the preview; the committed value is untouched.
func (r *RatingState) ClearHover() {
	r.Hover = 0
}

// AdjustLeft handles ArrowLeft: one star down, never below 1. With no
// committed value it selects star 1.
func (r *RatingState) AdjustLeft() {
	if r.Committed > 1 {
		r.Committed--
	} else if r.Committed == 0 && r.Max > 0 {
		r.Committed = 1
	}
}

// AdjustRight handles ArrowRight: one star up, never above max.
func (r *RatingState) AdjustRight() {
	if r.Committed == 0 && r.Max > 0 {
		r.Committed = 1
		return
	}
	if r.Committed < r.Max {
		r.Committed++
	}
}

// HiddenField is the value the companion hidden input holds: the
// committed selection, or empty when nothing is selected.
func (r *RatingState) HiddenField() string {
	if r.Committed == 0 {
		return ""
	}
	return strconv.Itoa(r.Committed)
}

// Displayed is the star count currently shown filled: the hover preview
// when present, otherwise the committed value.
func (r *RatingState) Displayed() int {
	if r.Hover > 0 {
		return r.Hover
	}
	return r.Committed
}
