package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// dateLayout is the value format of <input type="date">.
const dateLayout = "2006-01-02"

const requiredMsg = "This field is required."

// postForm carries the submitted post fields. Author and is_published are
// assigned by the server and never read from the request.
type postForm struct {
	Title    string
	Text     string
	PubDate  string
	Category string
	Errors   *ValidationError
}

func newPostForm(r *http.Request) *postForm {
	return &postForm{
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		Text:     strings.TrimSpace(r.PostFormValue("text")),
		PubDate:  strings.TrimSpace(r.PostFormValue("pub_date")),
		Category: strings.TrimSpace(r.PostFormValue("category")),
	}
}

func postFormFor(p Post) *postForm {
	return &postForm{
		Title:    p.Title,
		Text:     p.Text,
		PubDate:  p.PubDate.UTC().Format(dateLayout),
		Category: strconv.FormatInt(p.Category.ID, 10),
	}
}

// CategoryID lets templates mark the selected option.
func (f *postForm) CategoryID() int64 {
	id, _ := strconv.ParseInt(f.Category, 10, 64)
	return id
}

// validate checks the form against the selectable categories.
func (f *postForm) validate(categories []Category) (PostInput, bool) {
	ve := &ValidationError{}
	var in PostInput

	in.Title = f.Title
	if in.Title == "" {
		ve.Add("title", requiredMsg)
	}
	in.Text = f.Text
	if in.Text == "" {
		ve.Add("text", requiredMsg)
	}

	if f.PubDate == "" {
		ve.Add("pub_date", requiredMsg)
	} else if d, err := time.ParseInLocation(dateLayout, f.PubDate, time.UTC); err != nil {
		ve.Add("pub_date", "Enter a valid date.")
	} else {
		in.PubDate = d
	}

	if f.Category == "" {
		ve.Add("category", requiredMsg)
	} else {
		id := f.CategoryID()
		found := false
		for _, c := range categories {
			if c.ID == id {
				found = true
				break
			}
		}
		if !found {
			ve.Add("category", "Select a valid choice.")
		} else {
			in.CategoryID = id
		}
	}

	f.Errors = ve.orNil()
	return in, f.Errors == nil
}

// commentForm accepts the comment text and nothing else.
type commentForm struct {
	Text   string
	Errors *ValidationError
}

func newCommentForm(r *http.Request) *commentForm {
	return &commentForm{Text: strings.TrimSpace(r.PostFormValue("text"))}
}

func (f *commentForm) validate() bool {
	ve := &ValidationError{}
	if f.Text == "" {
		ve.Add("text", requiredMsg)
	}
	f.Errors = ve.orNil()
	return f.Errors == nil
}

type profileForm struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Errors    *ValidationError
}

func newProfileForm(r *http.Request) *profileForm {
	return &profileForm{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
	}
}

func profileFormFor(u User) *profileForm {
	return &profileForm{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

// validate checks the fields that need no database access.
func (f *profileForm) validate() bool {
	ve := &ValidationError{}
	if f.Username == "" {
		ve.Add("username", requiredMsg)
	} else if !validUsername(f.Username) {
		ve.Add("username", "Use letters, digits and @/./+/-/_ only.")
	}
	if f.Email != "" && !strings.Contains(f.Email, "@") {
		ve.Add("email", "Enter a valid email address.")
	}
	f.Errors = ve.orNil()
	return f.Errors == nil
}

func (f *profileForm) apply(u User) User {
	u.Username = f.Username
	u.FirstName = f.FirstName
	u.LastName = f.LastName
	u.Email = f.Email
	return u
}

type registrationForm struct {
	Username  string
	Password1 string
	Password2 string
	Errors    *ValidationError
}

func newRegistrationForm(r *http.Request) *registrationForm {
	return &registrationForm{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
	}
}

func (f *registrationForm) validate() bool {
	ve := &ValidationError{}
	if f.Username == "" {
		ve.Add("username", requiredMsg)
	} else if !validUsername(f.Username) {
		ve.Add("username", "Use letters, digits and @/./+/-/_ only.")
	}
	if f.Password1 == "" {
		ve.Add("password1", requiredMsg)
	}
	if f.Password2 == "" {
		ve.Add("password2", requiredMsg)
	} else if f.Password1 != f.Password2 {
		ve.Add("password2", "The two password fields didn't match.")
	}
	f.Errors = ve.orNil()
	return f.Errors == nil
}

// addError records a field error found after validate, e.g. a taken username.
func addError(errs **ValidationError, field, message string) {
	if *errs == nil {
		*errs = &ValidationError{}
	}
	(*errs).Add(field, message)
}

func validUsername(s string) bool {
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case strings.ContainsRune("@.+-_", r):
		default:
			return false
		}
	}
	return true
}
