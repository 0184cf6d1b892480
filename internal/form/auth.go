package form

import "strings"

type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"-" validate:"required"`
	Next     string `form:"next" json:"next"`
	Errors   Errors `form:"-" json:"errors,omitempty"`
}

func (f *LoginForm) Validate() bool {
	f.Username = strings.TrimSpace(f.Username)
	f.Errors = check(f)
	return len(f.Errors) == 0
}

type SignupForm struct {
	Username string `form:"username" json:"username" validate:"required,max=150,username"`
	Email    string `form:"email" json:"email" validate:"omitempty,email,max=254"`
	Password string `form:"password" json:"-" validate:"required,min=8,max=128"`
	Errors   Errors `form:"-" json:"errors,omitempty"`
}

func (f *SignupForm) Validate() bool {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	f.Errors = check(f)
	return len(f.Errors) == 0
}
