package service

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rryowa/taskmarket/internal/client"
	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/util"
)

// unwrap — единственная граница разбора ответов. Любой эндпоинт отдает
// канонический envelope; все остальное — ErrMalformedResponse.
func unwrap(resp *client.Response) (json.RawMessage, error) {
	var env models.Envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedResponse, err)
	}

	if !resp.OK() || !env.Success {
		msg := env.Message
		// Статусный текст годится только для не-2xx: success:false при
		// 200 не должен превращаться в ошибку с текстом "OK".
		if msg == "" && !resp.OK() {
			msg = http.StatusText(resp.StatusCode)
		}
		if msg == "" {
			msg = "request failed"
		}
		if len(env.Errors) > 0 {
			return nil, util.NewValidationError(resp.StatusCode, msg, env.Errors)
		}
		return nil, util.NewResponseError(resp.StatusCode, "%s", msg)
	}

	return env.Data, nil
}

func decode(data json.RawMessage, dst interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", util.ErrMalformedResponse)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", util.ErrMalformedResponse, err)
	}
	return nil
}

func marshalBody(v interface{}) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return body, nil
}
