package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnexpectedStatus is returned when the status endpoint answers non-2xx.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrMissingStatus is returned when the response has no string status field.
	ErrMissingStatus = errors.New("response carries no status")
)

// PollDeps captures status-poll dependencies.
type PollDeps struct {
	// Get performs one authorized GET and returns the HTTP status and body.
	Get func(ctx context.Context, path string) (int, []byte, error)
}

type PollResult struct {
	HTTPStatus int
	Status     string
	Body       []byte
}

// RunPollTick performs one status poll and extracts field from the JSON body.
func RunPollTick(ctx context.Context, path, field string, deps PollDeps) (PollResult, error) {
	code, body, err := deps.Get(ctx, path)
	if err != nil {
		return PollResult{}, err
	}
	if code < 200 || code > 299 {
		return PollResult{HTTPStatus: code}, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, code, path)
	}

	v := gjson.GetBytes(body, field)
	if v.Type != gjson.String || v.String() == "" {
		return PollResult{HTTPStatus: code, Body: body}, fmt.Errorf("%w field %q", ErrMissingStatus, field)
	}
	return PollResult{HTTPStatus: code, Status: v.String(), Body: body}, nil
}
