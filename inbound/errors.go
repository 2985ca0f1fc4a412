package inbound

import (
	"encoding/json"
	"net/http"

	"github.com/goliatone/go-deeplink/core"
	goerrors "github.com/goliatone/go-errors"
	"github.com/moogar0880/problems"
)

func inboundError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func inboundBadInput(message string, metadata map[string]any) error {
	return inboundError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.ErrorBadInput,
		metadata,
	)
}

func inboundInternal(message string, metadata map[string]any) error {
	return inboundError(
		message,
		goerrors.CategoryInternal,
		http.StatusInternalServerError,
		core.ErrorInternal,
		metadata,
	)
}

// problemFor converts err into an RFC 7807 document. Envelope codes outside
// the 4xx/5xx range become 500, and 5xx details are not echoed back.
func problemFor(err error, instance string) *problems.DefaultProblem {
	status := http.StatusInternalServerError
	detail := ""
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		if rich.Code >= http.StatusBadRequest && rich.Code < 600 {
			status = rich.Code
		}
		detail = rich.Message
	} else if err != nil {
		detail = err.Error()
	}
	if status >= http.StatusInternalServerError {
		detail = http.StatusText(status)
	}
	return &problems.DefaultProblem{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

func writeProblem(w http.ResponseWriter, problem *problems.DefaultProblem) {
	w.Header().Set("Content-Type", problems.ProblemMediaType)
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
