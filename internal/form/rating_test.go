package form

import "testing"

func TestRatingSelectAndHidden(t *testing.T) {
	t.Parallel()

	r := NewRatingState(4)
	if r.HiddenField() != "" {
		t.Errorf("fresh state hidden field = %q, want empty", r.HiddenField())
	}

	r.Select(3)
	if r.Committed != 3 || r.HiddenField() != "3" {
		t.Errorf("after Select(3): committed=%d hidden=%q", r.Committed, r.HiddenField())
	}

	// Out-of-range selections are ignored.
	r.Select(0)
	r.Select(5)
	if r.Committed != 3 {
		t.Errorf("out-of-range select changed committed to %d", r.Committed)
	}
}

func TestRatingHoverDoesNotCommit(t *testing.T) {
	t.Parallel()

	r := NewRatingState(5)
	r.Select(2)

	r.SetHover(4)
	if r.Displayed() != 4 {
		t.Errorf("hover preview displayed = %d, want 4", r.Displayed())
	}
	if r.Committed != 2 || r.HiddenField() != "2" {
		t.Errorf("hover must not commit: committed=%d hidden=%q", r.Committed, r.HiddenField())
	}

	r.ClearHover()
	if r.Displayed() != 2 {
		t.Errorf("after clear, displayed = %d, want committed 2", r.Displayed())
	}
}

func TestRatingArrowKeys(t *testing.T) {
	t.Parallel()

	t.Run("left decrements with floor", func(t *testing.T) {
		r := NewRatingState(4)
		r.Select(3)
		r.AdjustLeft()
		if r.Committed != 2 {
			t.Errorf("committed = %d, want 2", r.Committed)
		}
		r.AdjustLeft()
		r.AdjustLeft()
		r.AdjustLeft()
		if r.Committed != 1 {
			t.Errorf("committed = %d, floor is 1", r.Committed)
		}
	})

	t.Run("right increments with cap", func(t *testing.T) {
		r := NewRatingState(4)
		r.Select(3)
		r.AdjustRight()
		if r.Committed != 4 {
			t.Errorf("committed = %d, want 4", r.Committed)
		}
		r.AdjustRight()
		if r.Committed != 4 {
			t.Errorf("committed = %d, cap is max", r.Committed)
		}
	})

	t.Run("arrows on empty state select first star", func(t *testing.T) {
		r := NewRatingState(4)
		r.AdjustLeft()
		if r.Committed != 1 {
			t.Errorf("left on empty = %d, want 1", r.Committed)
		}

		r = NewRatingState(4)
		r.AdjustRight()
		if r.Committed != 1 {
			t.Errorf("right on empty = %d, want 1", r.Committed)
		}
	})
}
