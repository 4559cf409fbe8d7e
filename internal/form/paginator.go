package form

import (
	"errors"

	"healthsurveys/internal/model"
)

// DefaultPageSize is the number of questions shown per page when the
// survey does not override it.
const DefaultPageSize = 20

var ErrFacilityRequired = errors.New("facility selection is required")

// ValidationError reports required questions left unanswered on a page.
// FirstQuestionID is the control the UI should focus.
type ValidationError struct {
	QuestionIDs     []string
	FirstQuestionID string
}

func (e *ValidationError) Error() string {
	return "answer all required questions on this page"
}

// FacilityState is what the paginator needs to know about the facility
// picker at submit time. Nil or unconfigured states are exempt from
// validation (degrade-to-optional policy).
type FacilityState struct {
	Configured bool
	Required   bool
	SelectedID string
}

// Paginator splits an ordered question list into fixed-size pages and
// gates forward navigation on completion of the visible page.
type Paginator struct {
	questions []model.Question
	pageSize  int
	current   int
}

// PageView is one rendered page window plus its control visibility.
type PageView struct {
	Number     int
	Questions  []model.Question
	ShowBack   bool
	ShowNext   bool
	ShowSubmit bool
}

// NewPaginator builds a paginator over questions already sorted by
// position. A non-positive page size falls back to DefaultPageSize.
func NewPaginator(questions []model.Question, pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paginator{
		questions: questions,
		pageSize:  pageSize,
		current:   1,
	}
}

// PageCount returns ceil(N/K). Zero questions yield zero pages.
func (p *Paginator) PageCount() int {
	return (len(p.questions) + p.pageSize - 1) / p.pageSize
}

// CurrentPage returns the 1-based current page number.
func (p *Paginator) CurrentPage() int {
	return p.current
}

// SetPage moves to page n, clamped into [1, PageCount()].
func (p *Paginator) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	if last := p.PageCount(); last > 0 && n > last {
		n = last
	}
	p.current = n
}

// Page returns the view for page n: the question window plus which
// navigation controls are visible. Back is hidden on page 1, Next on
// the last page (or when there are no questions), Submit shows only on
// the last page. With zero questions Submit shows immediately.
func (p *Paginator) Page(n int) PageView {
	last := p.PageCount()
	view := PageView{
		Number:     n,
		ShowBack:   n > 1,
		ShowNext:   n < last,
		ShowSubmit: n >= last,
	}
	if last == 0 {
		view.ShowBack = false
		view.ShowNext = false
		view.ShowSubmit = true
		return view
	}
	start := (n - 1) * p.pageSize
	end := start + p.pageSize
	if start < 0 || start >= len(p.questions) {
		return view
	}
	if end > len(p.questions) {
		end = len(p.questions)
	}
	view.Questions = p.questions[start:end]
	return view
}

// Current returns the view for the current page.
func (p *Paginator) Current() PageView {
	return p.Page(p.current)
}

// ValidateVisible checks every required question on the current page.
// Returns nil when the page is complete, otherwise a *ValidationError
// listing the offenders in page order.
func (p *Paginator) ValidateVisible(a Answers) error {
	return validatePage(p.Current().Questions, a)
}

// Next validates the visible page and advances on success. On failure
// the page does not change and the validation error is returned.
func (p *Paginator) Next(a Answers) error {
	if err := p.ValidateVisible(a); err != nil {
		return err
	}
	if p.current < p.PageCount() {
		p.current++
	}
	return nil
}

// Back moves one page backward unconditionally.
func (p *Paginator) Back() {
	if p.current > 1 {
		p.current--
	}
}

// SubmitAll re-validates every required question across all pages, then
// the facility selection if that section is configured and required.
// The verdict depends only on the answers, so repeated calls agree.
func (p *Paginator) SubmitAll(a Answers, facility *FacilityState) error {
	if err := validatePage(p.questions, a); err != nil {
		return err
	}
	if facility != nil && facility.Configured && facility.Required && facility.SelectedID == "" {
		return ErrFacilityRequired
	}
	return nil
}

func validatePage(questions []model.Question, a Answers) error {
	var missing []string
	for i := range questions {
		q := &questions[i]
		if q.Required && !a.Satisfies(q) {
			missing = append(missing, q.ID)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{
		QuestionIDs:     missing,
		FirstQuestionID: missing[0],
	}
}
