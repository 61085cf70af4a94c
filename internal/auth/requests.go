package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Response is a decoded token API response.
type Response struct {
	StatusCode int
	Header     http.Header
	// Body is the raw response body.
	Body []byte
	// Data is the "data" member of a JSON body, if any.
	Data json.RawMessage
}

// StatusError is returned for API responses with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// SignInData is the input of SignIn.
type SignInData struct {
	Login    string
	Password string
	UserType string
}

// RegisterData is the input of RegisterAccount. Extra fields are sent as-is.
type RegisterData struct {
	Login                string
	Password             string
	PasswordConfirmation string
	UserType             string
	Extra                map[string]any
}

// UpdatePasswordData is the input of UpdatePassword.
type UpdatePasswordData struct {
	Password             string
	PasswordConfirmation string
	PasswordCurrent      string
	UserType             string
	ResetPasswordToken   string
}

// ResetPasswordData is the input of ResetPassword.
type ResetPasswordData struct {
	Login    string
	UserType string
}

// SignIn posts the login and password. The credentials arrive in the
// response headers and are installed by the client's transport.
func (m *Manager) SignIn(ctx context.Context, data SignInData, additionalData any) (*Response, error) {
	m.state.UserType.Next(m.UserTypeByName(data.UserType))

	opts := m.Options()
	body := map[string]any{
		opts.LoginField: data.Login,
		"password":      data.Password,
	}
	if additionalData != nil {
		body["additionalData"] = additionalData
	}

	resp, err := m.do(ctx, http.MethodPost, opts.SignInPath, body)
	if err != nil {
		return resp, err
	}
	m.state.Profile.Next(resp.Data)
	return resp, nil
}

// RegisterAccount creates an account.
func (m *Manager) RegisterAccount(ctx context.Context, data RegisterData, additionalData any) (*Response, error) {
	m.state.UserType.Next(m.UserTypeByName(data.UserType))

	opts := m.Options()
	body := make(map[string]any, len(data.Extra)+5)
	for k, v := range data.Extra {
		body[k] = v
	}
	body[opts.LoginField] = data.Login
	body["password"] = data.Password
	body["password_confirmation"] = data.PasswordConfirmation
	body["confirm_success_url"] = opts.RegisterAccountCallback
	if additionalData != nil {
		body["additionalData"] = additionalData
	}

	return m.do(ctx, http.MethodPost, opts.RegisterAccountPath, body)
}

// DeleteAccount deletes the signed-in account.
func (m *Manager) DeleteAccount(ctx context.Context) (*Response, error) {
	return m.do(ctx, http.MethodDelete, m.Options().DeleteAccountPath, nil)
}

// SignOut requests sign-out and then, whatever the outcome, clears stored
// credentials and resets the session.
func (m *Manager) SignOut(ctx context.Context) error {
	_, reqErr := m.do(ctx, http.MethodDelete, m.Options().SignOutPath, nil)

	m.mu.Lock()
	defer m.mu.Unlock()

	clearErr := m.store.Clear()
	m.state.Reset()

	return errors.Join(reqErr, clearErr)
}

// ValidateToken checks the session with the server and publishes the
// returned profile. Concurrent calls share one request, which is detached
// from any single caller's cancellation and ends when the manager closes.
// A 401 signs out when signOutFailedValidate is set; other failures are
// returned untouched.
func (m *Manager) ValidateToken(ctx context.Context) (*Response, error) {
	ch := m.validate.DoChan("validate", func() (any, error) {
		flightCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		stop := context.AfterFunc(m.ctx, cancel)
		defer stop()

		resp, err := m.do(flightCtx, http.MethodGet, m.Options().ValidateTokenPath, nil)
		if err != nil {
			if IsUnauthorized(err) && m.Options().SignOutFailedValidate {
				if signOutErr := m.SignOut(flightCtx); signOutErr != nil {
					m.logger.Debug("Sign-out after failed validation", "error", signOutErr)
				}
			}
			return resp, err
		}
		m.state.Profile.Next(resp.Data)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		resp, _ := res.Val.(*Response)
		return resp, res.Err
	}
}

// UpdatePassword changes the password, optionally proving the current one
// or a reset token.
func (m *Manager) UpdatePassword(ctx context.Context, data UpdatePasswordData) (*Response, error) {
	if data.UserType != "" {
		m.state.UserType.Next(m.UserTypeByName(data.UserType))
	}

	body := map[string]any{
		"password":              data.Password,
		"password_confirmation": data.PasswordConfirmation,
	}
	if data.PasswordCurrent != "" {
		body["current_password"] = data.PasswordCurrent
	}
	if data.ResetPasswordToken != "" {
		body["reset_password_token"] = data.ResetPasswordToken
	}

	return m.do(ctx, http.MethodPut, m.Options().UpdatePasswordPath, body)
}

// ResetPassword requests a password reset email.
func (m *Manager) ResetPassword(ctx context.Context, data ResetPasswordData, additionalData any) (*Response, error) {
	m.state.UserType.Next(m.UserTypeByName(data.UserType))

	opts := m.Options()
	body := map[string]any{
		opts.LoginField: data.Login,
		"redirect_url":  opts.ResetPasswordCallback,
	}
	if additionalData != nil {
		body["additionalData"] = additionalData
	}

	return m.do(ctx, http.MethodPost, opts.ResetPasswordPath, body)
}

// Do sends an authenticated request to rawURL through the session's client.
// A non-2xx status yields a *StatusError along with the response.
func (m *Manager) Do(ctx context.Context, method, rawURL string, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return m.send(req)
}

func (m *Manager) do(ctx context.Context, method, path string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	return m.Do(ctx, method, m.ServerPath()+path, reader)
}

func (m *Manager) send(req *http.Request) (*Response, error) {
	m.logger.Debug("Sending request", "method", req.Method, "url", req.URL.String())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &envelope) == nil {
		out.Data = envelope.Data
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &StatusError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       raw,
		}
	}
	return out, nil
}
