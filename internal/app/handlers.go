package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/restkit/internal/domain/dispatch"
)

// sayHello greets the name parameter.
func sayHello(_ context.Context, call *dispatch.Call) (dispatch.Payload, error) {
	name := call.Args.String("name")
	if name == "" {
		return nil, dispatch.NewError(http.StatusPreconditionFailed, "Name is required!")
	}
	return dispatch.Payload{"greeting": fmt.Sprintf("Hello, %s", name)}, nil
}

// echo reflects the normalized request back to the caller.
func echo(_ context.Context, call *dispatch.Call) (dispatch.Payload, error) {
	payload := call.File
	if payload == nil {
		payload = call.Body
	}
	positional := call.Positional
	if positional == nil {
		positional = []string{}
	}
	return dispatch.Payload{
		"verb":       string(call.Verb),
		"sub_verb":   call.SubVerb,
		"positional": positional,
		"args":       call.Args,
		"params":     call.Params,
		"headers":    call.Headers,
		"payload":    string(payload),
	}, nil
}

// whoami reports the basic-auth username, if any.
func whoami(_ context.Context, call *dispatch.Call) (dispatch.Payload, error) {
	creds, err := call.Credentials()
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return dispatch.Payload{"credentials": false}, nil
	}
	return dispatch.Payload{"credentials": true, "username": creds.Username}, nil
}
