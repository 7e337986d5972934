package formerr

import (
	"errors"
	"net/http"
	"strings"
)

// backendErrorHint is appended when document creation fails with a generic
// backend error, which in practice signals an auth-mode mismatch.
const backendErrorHint = "Hint: This commonly happens when using a service account without a real Google user context. " +
	"For personal Gmail accounts, service accounts typically cannot create/own Google Forms. " +
	"To create forms reliably you need either (a) Google Workspace + Domain-Wide Delegation + user impersonation, " +
	"or (b) OAuth2 user consent (refresh token) for the Gmail user."

// Upstream is implemented by Forms Service failures that expose the
// upstream status, a short machine reason and a message.
type Upstream interface {
	error
	UpstreamStatus() int
	UpstreamReason() string
	UpstreamMessage() string
}

// TransientStatus reports whether an upstream status is worth retrying:
// rate limiting or server-side unavailability.
func TransientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// UpstreamStatusOf returns the upstream status carried by err. Failures
// without a recognisable status count as 502.
func UpstreamStatusOf(err error) int {
	var up Upstream
	if errors.As(err, &up) && up.UpstreamStatus() > 0 {
		return up.UpstreamStatus()
	}
	return http.StatusBadGateway
}

// TranslateCreate maps a document-create failure.
func TranslateCreate(err error) *Error {
	e := translate(err, CodeUpstreamCreateFailed, "Google Forms create failed")
	if e.Code == CodeValidation || e.Code == CodeUnsupportedQuestionType {
		return e
	}
	var up Upstream
	if errors.As(err, &up) && up.UpstreamStatus() == http.StatusInternalServerError && up.UpstreamReason() == "backendError" {
		// Retrying does not help here; report it as a create failure.
		e.Code = CodeUpstreamCreateFailed
		e.Hint = backendErrorHint
	}
	return e
}

// TranslateMutate maps a batch-mutate failure.
func TranslateMutate(err error) *Error {
	return translate(err, CodeUpstreamMutateFailed, "Google Forms update failed")
}

// TranslateRead maps a document-read failure. A 404 becomes FORM_NOT_FOUND.
func TranslateRead(err error) *Error {
	e := translate(err, CodeUpstreamReadFailed, "Google Forms read failed")
	if e.Status == http.StatusNotFound {
		e.Code = CodeNotFound
	}
	return e
}

func translate(err error, code Code, fallback string) *Error {
	var already *Error
	if errors.As(err, &already) {
		return already
	}

	status := UpstreamStatusOf(err)
	if TransientStatus(status) {
		code = CodeTransientUpstream
	}

	return &Error{
		Status:  status,
		Code:    code,
		Message: upstreamMessage(err, fallback),
		Err:     err,
	}
}

// upstreamMessage renders "<message> (details: <reason>)" from the
// upstream failure, falling back when no message is available.
func upstreamMessage(err error, fallback string) string {
	var msg, reason string
	var up Upstream
	if errors.As(err, &up) {
		msg = up.UpstreamMessage()
		reason = up.UpstreamReason()
	} else if err != nil {
		msg = err.Error()
	}

	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = fallback
	}
	if reason != "" {
		return msg + " (details: " + reason + ")"
	}
	return msg
}
