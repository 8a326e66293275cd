package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type ClientController struct {
	client *http.Client
	logger *logrus.Logger

	apiKey string
}

func NewClientController(
	client *http.Client,
	apiKey string,
	logger *logrus.Logger,
) *ClientController {
	return &ClientController{
		client: client,
		apiKey: apiKey,
		logger: logger,
	}
}

var (
	ErrCodeUnknownOrderSent = -2011
	ErrUnknownOrderSent     = fmt.Errorf("%s", "Unknown order sent.")
)

type ErrStruct struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Send performs one exchange REST call. Every non-2xx response comes
// back as an error, never a silently empty body.
func (c *ClientController) Send(ctx context.Context, method string, url *url.URL, body []byte, useApiKey bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Add("Content-Type", "application/json")
	if useApiKey {
		req.Header.Add("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respErr, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusBadRequest {
			var errMsg ErrStruct
			if err := json.Unmarshal(respErr, &errMsg); err != nil {
				return nil, err
			}
			switch errMsg.Code {
			case ErrCodeUnknownOrderSent:
				return nil, ErrUnknownOrderSent
			}

			return nil, errors.Errorf("exchange rejected request: %+v", errMsg)
		}

		return nil, errors.Errorf("statusCode %d; resp %s;", resp.StatusCode, respErr)
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return out, nil
}
