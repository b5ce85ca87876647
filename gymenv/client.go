// Package gymenv connects anyeval to environments hosted by
// a gym-http-api server.
package gymenv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/unixpickle/essentials"
)

// A Client talks to a gym-http-api server.
type Client struct {
	// BaseURL is the server address, such as
	// "http://localhost:5000".
	BaseURL string

	// HTTP is used for every request.
	// If nil, a client with a 30 second timeout is used.
	HTTP *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Space describes an action or observation space.
type Space struct {
	Name  string    `json:"name"`
	N     int       `json:"n"`
	Shape []int     `json:"shape"`
	Low   []float64 `json:"low"`
	High  []float64 `json:"high"`
}

type createResponse struct {
	InstanceID string `json:"instance_id"`
}

type resetResponse struct {
	Observation interface{} `json:"observation"`
}

type stepRequest struct {
	Action interface{} `json:"action"`
	Render bool        `json:"render"`
}

type stepResponse struct {
	Observation interface{} `json:"observation"`
	Reward      float64     `json:"reward"`
	Done        bool        `json:"done"`
}

type spaceResponse struct {
	Info *Space `json:"info"`
}

// Create starts a new environment and returns its instance
// ID.
func (c *Client) Create(envID string) (id string, err error) {
	defer essentials.AddCtxTo("create "+envID, &err)
	var resp createResponse
	err = c.call(http.MethodPost, "/v1/envs/", map[string]string{"env_id": envID}, &resp)
	return resp.InstanceID, err
}

// Reset starts a new episode and returns the first
// observation.
func (c *Client) Reset(id string) (obs interface{}, err error) {
	var resp resetResponse
	err = c.call(http.MethodPost, "/v1/envs/"+id+"/reset/", struct{}{}, &resp)
	return resp.Observation, err
}

// Step takes an action.
func (c *Client) Step(id string, action interface{}, render bool) (obs interface{},
	reward float64, done bool, err error) {
	var resp stepResponse
	err = c.call(http.MethodPost, "/v1/envs/"+id+"/step/",
		stepRequest{Action: action, Render: render}, &resp)
	return resp.Observation, resp.Reward, resp.Done, err
}

// ActionSpace fetches the action space of an instance.
func (c *Client) ActionSpace(id string) (*Space, error) {
	return c.space(id, "action_space")
}

// ObservationSpace fetches the observation space of an
// instance.
func (c *Client) ObservationSpace(id string) (*Space, error) {
	return c.space(id, "observation_space")
}

// Close shuts down an instance.
func (c *Client) Close(id string) error {
	return c.call(http.MethodPost, "/v1/envs/"+id+"/close/", struct{}{}, nil)
}

func (c *Client) space(id, kind string) (space *Space, err error) {
	defer essentials.AddCtxTo("fetch "+kind, &err)
	var resp spaceResponse
	if err := c.call(http.MethodGet, "/v1/envs/"+id+"/"+kind+"/", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Info == nil {
		return nil, fmt.Errorf("missing %s info", kind)
	}
	return resp.Info, nil
}

func (c *Client) call(method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status,
			strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
