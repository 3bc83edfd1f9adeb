package accountform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/recruit-inbox/internal/model"
)

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "https://recruit.example", wantErr: false},
		{in: "http://localhost:8080/api", wantErr: false},
		{in: "", wantErr: true},
		{in: "recruit.example", wantErr: true},
		{in: "ftp://recruit.example", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateBaseURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmitDetectsPortal(t *testing.T) {
	m := New(80, 24)
	m.StartCreate()
	m.fb.name = " Hiring "
	m.fb.baseURL = "https://company.recruit.example/api/"
	m.fb.cookie = " abc "

	msg, ok := m.handleSubmit()().(SubmittedMsg)
	require.True(t, ok)
	assert.Equal(t, "Hiring", msg.Account.Name)
	assert.Equal(t, "https://company.recruit.example/api", msg.Account.BaseURL)
	assert.Equal(t, "company", msg.Account.Portal)
	assert.Equal(t, "abc", msg.Cookie)
	assert.Empty(t, msg.Account.ID)
}

func TestEditKeepsIdentity(t *testing.T) {
	m := New(80, 24)
	m.StartEdit(model.Account{ID: "acct-1", Name: "Old", BaseURL: "https://recruit.example", Portal: "student"})
	m.fb.portal = "admin"

	msg, ok := m.handleSubmit()().(SubmittedMsg)
	require.True(t, ok)
	assert.Equal(t, "acct-1", msg.Account.ID)
	assert.Equal(t, "admin", msg.Account.Portal)
	assert.Empty(t, msg.Cookie)

	assert.NoError(t, m.validateCookie(""), "editing may keep the current cookie")
}

func TestCreateRequiresCookie(t *testing.T) {
	m := New(80, 24)
	m.StartCreate()
	assert.Error(t, m.validateCookie("  "))
}
