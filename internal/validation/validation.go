package validation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	"github.com/kjstillabower/subscription-intake-service/internal/models"
)

// FormContentType is the only media type accepted for subscription bodies.
const FormContentType = "application/x-www-form-urlencoded"

// ErrUnsupportedContentType is returned when the body is not form-encoded.
var ErrUnsupportedContentType = errors.New("content type must be " + FormContentType)

// ErrMalformedForm is returned when the body cannot be read or decoded.
var ErrMalformedForm = errors.New("malformed form body")

// ErrNameMissing is returned when name is absent or blank.
var ErrNameMissing = errors.New("name is required")

// ErrEmailMissing is returned when email is absent or blank.
var ErrEmailMissing = errors.New("email is required")

// IsParseError reports whether err came from decoding rather than from
// field validation.
func IsParseError(err error) bool {
	return errors.Is(err, ErrMalformedForm) || errors.Is(err, ErrUnsupportedContentType)
}

// DecodeSubscription reads a form-encoded body and validates it.
// Any returned error is suitable for a 400 response. If ctx ends before the
// body has arrived, the error wraps both ErrMalformedForm and ctx.Err().
func DecodeSubscription(ctx context.Context, contentType string, body io.Reader) (models.SubscriptionRequest, error) {
	if contentType == "" {
		return models.SubscriptionRequest{}, ErrUnsupportedContentType
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != FormContentType {
		return models.SubscriptionRequest{}, ErrUnsupportedContentType
	}

	raw, err := readBody(ctx, body)
	if err != nil {
		return models.SubscriptionRequest{}, fmt.Errorf("%w: read body: %w", ErrMalformedForm, err)
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return models.SubscriptionRequest{}, fmt.Errorf("%w: %v", ErrMalformedForm, err)
	}
	return ValidateSubscription(values)
}

// readBody reads body to EOF or until ctx is done, whichever comes first.
// On cancellation the reading goroutine exits once body returns.
func readBody(ctx context.Context, body io.Reader) ([]byte, error) {
	type result struct {
		raw []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		raw, err := io.ReadAll(body)
		done <- result{raw: raw, err: err}
	}()
	select {
	case res := <-done:
		return res.raw, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ValidateSubscription applies the required-field predicate: name and email
// must both be present and non-blank. When both are missing the returned
// error matches ErrNameMissing and ErrEmailMissing.
func ValidateSubscription(values url.Values) (models.SubscriptionRequest, error) {
	req := models.SubscriptionRequest{
		Name:  strings.TrimSpace(values.Get("name")),
		Email: strings.TrimSpace(values.Get("email")),
	}
	var errs []error
	if req.Name == "" {
		errs = append(errs, ErrNameMissing)
	}
	if req.Email == "" {
		errs = append(errs, ErrEmailMissing)
	}
	if len(errs) > 0 {
		return models.SubscriptionRequest{}, errors.Join(errs...)
	}
	return req, nil
}
