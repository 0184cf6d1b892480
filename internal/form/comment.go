package form

import "strings"

type CommentForm struct {
	Text   string `form:"text" json:"text" validate:"required"`
	Errors Errors `form:"-" json:"errors,omitempty"`
}

func (f *CommentForm) Validate() bool {
	f.Text = strings.TrimSpace(f.Text)
	f.Errors = check(f)
	return len(f.Errors) == 0
}
