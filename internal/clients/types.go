package clients

import (
	"encoding/json"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrNotFound = errors.New("client not found")

type Client struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Projects      Projects  `json:"projects"`
	CreatedAt     time.Time `json:"created_at"`
}

// Projects decodes from either a JSON list or a comma separated string.
// Entries are trimmed and empty ones dropped.
type Projects []string

func (p *Projects) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.New("projects must be a list or a comma separated string")
		}
		list = strings.Split(s, ",")
	}
	*p = cleanProjects(list)
	return nil
}

func cleanProjects(in []string) Projects {
	out := Projects{}
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ClientRequest is the body of POST /clients and PUT /clients/{id}.
type ClientRequest struct {
	Name          string   `json:"name"`
	ContactPerson string   `json:"contact_person"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	Projects      Projects `json:"projects"`
}

var phonePattern = regexp.MustCompile(`^[+]?[\d\s\-()]+$`)

// Validate trims the request in place and reports the first problem.
func (req *ClientRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.ContactPerson = strings.TrimSpace(req.ContactPerson)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Projects == nil {
		req.Projects = Projects{}
	}

	if utf8.RuneCountInString(req.Name) < 2 {
		return errors.New("name must be at least 2 characters")
	}
	if utf8.RuneCountInString(req.ContactPerson) < 2 {
		return errors.New("contact person must be at least 2 characters")
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return errors.New("invalid email address")
	}
	if len(req.Phone) < 7 || !phonePattern.MatchString(req.Phone) {
		return errors.New("invalid phone number")
	}
	return nil
}

func (req ClientRequest) apply(c *Client) {
	c.Name = req.Name
	c.ContactPerson = req.ContactPerson
	c.Email = req.Email
	c.Phone = req.Phone
	c.Projects = req.Projects
}
