// Package portal maps hostnames onto the three role-specific surfaces of
// the recruiting platform.
package portal

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Portal identifies a role-specific UI surface.
type Portal string

const (
	Student Portal = "student"
	Company Portal = "company"
	Admin   Portal = "admin"
)

// All lists the portals in display order.
var All = []Portal{Student, Company, Admin}

// Valid reports whether p is one of the known portals.
func (p Portal) Valid() bool {
	switch p {
	case Student, Company, Admin:
		return true
	}
	return false
}

// Label returns the human-readable portal name.
func (p Portal) Label() string {
	switch p {
	case Company:
		return "Company"
	case Admin:
		return "Admin"
	default:
		return "Student"
	}
}

// Parse converts a config value into a Portal. The empty string is an
// error so callers can decide whether to fall back to Resolve.
func Parse(s string) (Portal, error) {
	p := Portal(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown portal %q", s)
	}
	return p, nil
}

// Resolve derives the portal from a hostname. The first DNS label picks
// the portal: "company" and "admin" select their portals and anything
// else, including apex domains, IP addresses and localhost, selects the
// student portal.
func Resolve(host string) Portal {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")

	if host == "" || net.ParseIP(host) != nil {
		return Student
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return Student
	}

	switch labels[0] {
	case "company":
		return Company
	case "admin":
		return Admin
	default:
		return Student
	}
}

// FromURL resolves the portal for the host of rawURL. Unparseable input
// resolves to the student portal.
func FromURL(rawURL string) Portal {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return Student
	}
	return Resolve(u.Host)
}
