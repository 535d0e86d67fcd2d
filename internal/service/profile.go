package service

import (
	"strings"

	"github.com/markbates/goth"
)

// Profile is a provider profile as handed over by an OAuth client.
type Profile struct {
	ID          string
	DisplayName string
	Emails      []string
	Photos      []string
	Raw         map[string]any
}

func ProfileFromGoth(u goth.User) Profile {
	p := Profile{
		ID:          strings.TrimSpace(u.UserID),
		DisplayName: gothDisplayName(u),
		Raw:         u.RawData,
	}
	if email := strings.TrimSpace(u.Email); email != "" {
		p.Emails = []string{email}
	}
	if avatar := strings.TrimSpace(u.AvatarURL); avatar != "" {
		p.Photos = []string{avatar}
	}
	return p
}

func (p Profile) PrimaryEmail() string {
	for _, e := range p.Emails {
		if e = strings.TrimSpace(e); e != "" {
			return e
		}
	}
	return ""
}

func (p Profile) firstPhoto() string {
	for _, ph := range p.Photos {
		if ph = strings.TrimSpace(ph); ph != "" {
			return ph
		}
	}
	return ""
}

func gothDisplayName(u goth.User) string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return strings.TrimSpace(u.NickName)
}
