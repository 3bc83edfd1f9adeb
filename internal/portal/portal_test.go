package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		host string
		want Portal
	}{
		{name: "company subdomain", host: "company.jobs.example.com", want: Company},
		{name: "admin subdomain", host: "admin.jobs.example.com", want: Admin},
		{name: "apex is student", host: "example.com", want: Student},
		{name: "www is student", host: "www.example.com", want: Student},
		{name: "port is stripped", host: "admin.example.com:8443", want: Admin},
		{name: "case insensitive", host: "Company.Example.COM", want: Company},
		{name: "trailing dot", host: "admin.example.com.", want: Admin},
		{name: "localhost", host: "localhost:3000", want: Student},
		{name: "company on localhost", host: "company.localhost:3000", want: Company},
		{name: "ip address", host: "127.0.0.1:8080", want: Student},
		{name: "empty", host: "", want: Student},
		{name: "bare label", host: "admin", want: Student},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.host))
		})
	}
}

func TestFromURL(t *testing.T) {
	assert.Equal(t, Company, FromURL("https://company.example.com/api"))
	assert.Equal(t, Admin, FromURL("http://admin.localhost:8080"))
	assert.Equal(t, Student, FromURL("not a url"))
	assert.Equal(t, Student, FromURL(""))
}

func TestParse(t *testing.T) {
	p, err := Parse(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, Admin, p)

	_, err = Parse("recruiter")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Student", Student.Label())
	assert.Equal(t, "Company", Company.Label())
	assert.Equal(t, "Admin", Admin.Label())
}
