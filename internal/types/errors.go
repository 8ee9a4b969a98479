package types

import (
	"errors"
	"fmt"
)

type FetchError struct {
	Source string
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Source, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

func NewFetchError(source, url string, err error) *FetchError {
	return &FetchError{
		Source: source,
		URL:    url,
		Err:    err,
	}
}
