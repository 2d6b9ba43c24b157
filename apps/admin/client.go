package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/roster/apps/api/echo"
	"github.com/trezcool/roster/core/payment"
)

// apiError is a non-2xx answer of the API.
type apiError struct {
	Code    int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

// apiClient talks to the roster JSON API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/v1",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &apiError{Code: resp.StatusCode, Message: errorMessage(data)}
	}
	if dest != nil && len(data) > 0 {
		if err := json.Unmarshal(data, dest); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

// errorMessage flattens an error body: `{"error": msg}` or `{field: msg | [msgs]}`.
func errorMessage(data []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}
	if msg, ok := body["error"].(string); ok {
		return msg
	}

	fields := make([]string, 0, len(body))
	for field := range body {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		switch v := body[field].(type) {
		case string:
			msgs = append(msgs, fieldMessage(field, v))
		case []interface{}:
			for _, m := range v {
				msgs = append(msgs, fieldMessage(field, fmt.Sprint(m)))
			}
		}
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(field, msg string) string {
	if field == "non_field_errors" {
		return msg
	}
	return field + ": " + msg
}

func (c *apiClient) listTeachers(ctx context.Context, search string, statuses []string) ([]echoapi.TeacherResponse, error) {
	v := make(url.Values)
	if search != "" {
		v.Set("search", search)
	}
	for _, s := range statuses {
		v.Add("status", s)
	}
	v.Set("ordering", "name")

	var teachers []echoapi.TeacherResponse
	err := c.do(ctx, http.MethodGet, "/teachers?"+v.Encode(), nil, &teachers)
	return teachers, err
}

func (c *apiClient) getTeacher(ctx context.Context, id string) (echoapi.TeacherResponse, error) {
	var t echoapi.TeacherResponse
	err := c.do(ctx, http.MethodGet, "/teachers/"+url.PathEscape(id), nil, &t)
	return t, err
}

func (c *apiClient) startPayment(ctx context.Context, teacherID string) (payment.Snapshot, error) {
	var snap payment.Snapshot
	err := c.do(ctx, http.MethodPost, "/teachers/"+url.PathEscape(teacherID)+"/payments", nil, &snap)
	return snap, err
}

func (c *apiClient) selectMethod(ctx context.Context, sid string, m payment.Method) (bool, error) {
	var res echoapi.MethodResponse
	err := c.do(ctx, http.MethodPut, "/payments/"+sid+"/method", echoapi.MethodRequest{Method: m}, &res)
	return res.Selected, err
}

func (c *apiClient) submitPayment(ctx context.Context, sid string, form payment.Form) (payment.Summary, error) {
	var res echoapi.SubmitResponse
	err := c.do(ctx, http.MethodPost, "/payments/"+sid+"/submit", form, &res)
	return res.Summary, err
}

func (c *apiClient) confirmPayment(ctx context.Context, sid string) (payment.Receipt, error) {
	var r payment.Receipt
	err := c.do(ctx, http.MethodPost, "/payments/"+sid+"/confirm", nil, &r)
	return r, err
}

func (c *apiClient) cancelPayment(ctx context.Context, sid string) error {
	return c.do(ctx, http.MethodPost, "/payments/"+sid+"/cancel", nil, nil)
}

func (c *apiClient) discardPayment(ctx context.Context, sid string) error {
	return c.do(ctx, http.MethodDelete, "/payments/"+sid, nil, nil)
}
