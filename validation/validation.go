package validation

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mkravets/go-todo-api/models"
)

const maxTitleLength = 255

// FieldError describes a single rule violation in an inbound request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error collects every violation found in a request so the client gets
// all of them at once instead of one per round trip.
type Error struct {
	Details []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Details))
	for i, d := range e.Details {
		msgs[i] = d.Field + ": " + d.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *Error) add(field, message, code string) {
	e.Details = append(e.Details, FieldError{Field: field, Message: message, Code: code})
}

func (e *Error) orNil() *Error {
	if len(e.Details) == 0 {
		return nil
	}
	return e
}

// Join merges validation results from multiple checks run against the
// same request (e.g. path id + body). Nil when every check passed.
func Join(errs ...*Error) *Error {
	merged := &Error{}
	for _, err := range errs {
		if err != nil {
			merged.Details = append(merged.Details, err.Details...)
		}
	}
	return merged.orNil()
}

func invalidBody() *Error {
	e := &Error{}
	e.add("body", "Invalid JSON body", "invalid_type")
	return e
}

// ValidateCreate checks a create payload and returns the normalized title.
func ValidateCreate(body []byte) (string, *Error) {
	var input struct {
		Title json.RawMessage `json:"title"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		return "", invalidBody()
	}

	e := &Error{}
	if input.Title == nil {
		e.add("title", "Title is required", "invalid_type")
		return "", e
	}
	title, fieldErr := parseTitle(input.Title)
	if fieldErr != nil {
		e.Details = append(e.Details, *fieldErr)
		return "", e
	}
	return title, nil
}

// ValidateUpdate checks a partial update payload. At least one of the
// recognized fields must be present; unknown fields are ignored.
func ValidateUpdate(body []byte) (models.TodoPatch, *Error) {
	var input struct {
		Title     json.RawMessage `json:"title"`
		Completed json.RawMessage `json:"completed"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		return models.TodoPatch{}, invalidBody()
	}

	if input.Title == nil && input.Completed == nil {
		e := &Error{}
		e.add("title", "At least one field (title or completed) must be provided", "custom")
		return models.TodoPatch{}, e
	}

	e := &Error{}
	var patch models.TodoPatch
	if input.Title != nil {
		title, fieldErr := parseTitle(input.Title)
		if fieldErr != nil {
			e.Details = append(e.Details, *fieldErr)
		} else {
			patch.Title = &title
		}
	}
	if input.Completed != nil {
		var completed bool
		if err := json.Unmarshal(input.Completed, &completed); err != nil {
			e.add("completed", "Completed must be a boolean", "invalid_type")
		} else {
			patch.Completed = &completed
		}
	}
	if err := e.orNil(); err != nil {
		return models.TodoPatch{}, err
	}
	return patch, nil
}

var idPattern = regexp.MustCompile(`^\d+$`)

// ValidateID checks a path parameter and converts it to a positive id.
func ValidateID(raw string) (int64, *Error) {
	e := &Error{}
	if raw == "" {
		e.add("id", "ID is required", "invalid_type")
		return 0, e
	}
	if !idPattern.MatchString(raw) {
		e.add("id", "ID must be a valid number", "invalid_string")
		return 0, e
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		e.add("id", "ID must be a valid number", "invalid_string")
		return 0, e
	}
	if id <= 0 {
		e.add("id", "ID must be greater than 0", "custom")
		return 0, e
	}
	return id, nil
}

func parseTitle(raw json.RawMessage) (string, *FieldError) {
	var title string
	if err := json.Unmarshal(raw, &title); err != nil {
		return "", &FieldError{Field: "title", Message: "Title must be a string", Code: "invalid_type"}
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &FieldError{Field: "title", Message: "Title cannot be empty", Code: "too_small"}
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", &FieldError{Field: "title", Message: "Title must be less than 255 characters", Code: "too_big"}
	}
	return title, nil
}
