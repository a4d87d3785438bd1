package codec

import (
	"context"

	formskema "github.com/reoring/formskema"
)

// CalendarDate returns a Codec between YYYY-MM-DD strings and formskema.Date.
func CalendarDate() Codec[formskema.Date] { return dateCodec{} }

type dateCodec struct{}

func (dateCodec) Decode(ctx context.Context, s string) (formskema.Date, error) {
	d, err := formskema.ParseDate(s)
	if err != nil {
		return formskema.Date{}, formskema.Issues{{Path: "/", Code: formskema.CodeInvalidFormat, Message: "invalid date", Hint: formskema.DateLayout, Cause: err}}
	}
	return d, nil
}

func (dateCodec) Encode(ctx context.Context, d formskema.Date) (string, error) {
	if d.IsZero() {
		return "", formskema.Issues{{Path: "/", Code: formskema.CodeRequired, Message: "zero date"}}
	}
	return d.String(), nil
}
