package identity

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"stakevault/internal/stakeapi"
)

// Client talks to the external identity service. Password hashing and
// verification live there; this process only ever holds the opaque
// credential reference.
type Client struct {
	http *resty.Client
}

func New(baseUrl string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseUrl).
			SetTimeout(10 * time.Second).
			SetRetryCount(2),
	}
}

type credentialRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Ref      string `json:"ref,omitempty"`
}

type credentialResponse struct {
	Ref string `json:"ref"`
}

func (c *Client) Register(email, password string) (string, error) {
	var out credentialResponse
	resp, err := c.http.R().
		SetBody(credentialRequest{Email: email, Password: password}).
		SetResult(&out).
		Post("/credentials")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("identity service: register failed with %s", resp.Status())
	}
	return out.Ref, nil
}

func (c *Client) Verify(email, password, credentialRef string) error {
	resp, err := c.http.R().
		SetBody(credentialRequest{Email: email, Password: password, Ref: credentialRef}).
		Post("/credentials/verify")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return stakeapi.Validationf("invalid credentials")
	}
	return nil
}
