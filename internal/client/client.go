// Package client is a Go client for the Grameen Service Connect API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"grameen_connect/internal/models"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type AuthResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
	Token   string      `json:"token"`
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
	Location string `json:"location,omitempty"`
}

// NewRequest is a service request submission. DocumentPath, when set, is uploaded as the document.
type NewRequest struct {
	Name         string `json:"name"`
	Contact      string `json:"contact,omitempty"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Location     string `json:"location,omitempty"`
	DocumentPath string `json:"-"`
}

type RequestList struct {
	Requests []models.RequestView `json:"requests"`
	Count    int                  `json:"count"`
}

type RequestResponse struct {
	Message string                `json:"message"`
	Request models.ServiceRequest `json:"request"`
}

type MessageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type MessageList struct {
	Messages []models.Message `json:"messages"`
	Count    int              `json:"count"`
}

// ProfileUpdate mirrors the profile endpoint. Nil fields are not sent.
type ProfileUpdate struct {
	FullName   *string `json:"fullName,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Location   *string `json:"location,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	AvatarPath string  `json:"-"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	Language   string
}

// New returns a client for baseURL, e.g. http://localhost:5000/api.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) do(ctx context.Context, method, path, token string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, token, out)
}

func (c *Client) send(req *http.Request, token string, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.Language != "" {
		req.Header.Set("Accept-Language", c.Language)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error   string            `json:"error"`
			Details map[string]string `json:"details"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error, Details: e.Details}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// sendMultipart posts fields plus an optional file read from disk.
func (c *Client) sendMultipart(ctx context.Context, method, path, token string, fields map[string]string, fileField, filePath string, out interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			return err
		}
		defer f.Close()
		fw, err := mw.CreateFormFile(fileField, filepath.Base(filePath))
		if err != nil {
			return err
		}
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, token, out)
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context, token string) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *Client) CreateRequest(ctx context.Context, token string, in NewRequest) (*RequestResponse, error) {
	var out RequestResponse
	var err error
	if in.DocumentPath != "" {
		fields := map[string]string{"name": in.Name, "category": in.Category, "description": in.Description}
		if in.Contact != "" {
			fields["contact"] = in.Contact
		}
		if in.Location != "" {
			fields["location"] = in.Location
		}
		err = c.sendMultipart(ctx, http.MethodPost, "/requests", token, fields, "document", in.DocumentPath, &out)
	} else {
		err = c.do(ctx, http.MethodPost, "/requests", token, in, &out)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRequests fetches public requests. Empty status means all; limit <= 0 uses the server default.
func (c *Client) ListRequests(ctx context.Context, status models.RequestStatus, limit int) (*RequestList, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/requests"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out RequestList
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRequest(ctx context.Context, id uint) (*models.RequestView, error) {
	var out models.RequestView
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/requests/%d", id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyRequests(ctx context.Context, token string) (*RequestList, error) {
	var out RequestList
	if err := c.do(ctx, http.MethodGet, "/requests/my-requests", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus changes a request's status; volunteerID 0 leaves the assignment alone.
func (c *Client) UpdateStatus(ctx context.Context, token string, id uint, status models.RequestStatus, volunteerID uint) (*RequestResponse, error) {
	body := map[string]interface{}{"status": status}
	if volunteerID != 0 {
		body["volunteerId"] = volunteerID
	}
	var out RequestResponse
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/requests/%d/status", id), token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendMessage(ctx context.Context, in MessageRequest) (*models.Message, error) {
	var out struct {
		Data models.Message `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/messages", "", in, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) Messages(ctx context.Context, token string) (*MessageList, error) {
	var out MessageList
	if err := c.do(ctx, http.MethodGet, "/messages", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, in ProfileUpdate) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	var err error
	if in.AvatarPath != "" {
		fields := map[string]string{}
		for key, v := range map[string]*string{"fullName": in.FullName, "phone": in.Phone, "location": in.Location, "bio": in.Bio} {
			if v != nil {
				fields[key] = *v
			}
		}
		err = c.sendMultipart(ctx, http.MethodPut, "/users/profile", token, fields, "avatar", in.AvatarPath, &out)
	} else {
		err = c.do(ctx, http.MethodPut, "/users/profile", token, in, &out)
	}
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Testimonials(ctx context.Context) ([]models.Testimonial, error) {
	var out struct {
		Testimonials []models.Testimonial `json:"testimonials"`
	}
	if err := c.do(ctx, http.MethodGet, "/testimonials", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Testimonials, nil
}

// EventsURL is the websocket address of the realtime request feed.
func (c *Client) EventsURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/requests/events")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}
