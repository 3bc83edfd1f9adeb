// Package session answers whether the user currently has a usable backend
// session. Login itself happens elsewhere; the user pastes the session
// cookie the platform issued and it is kept in the system keyring.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/recruit-inbox/internal/credential"
)

// ErrNoSession is returned when no cookie is stored for the account.
var ErrNoSession = errors.New("no active session")

// Provider reports whether a session is active.
type Provider interface {
	Active() bool
}

// Keyring is a Provider backed by the cookie stored for one account.
type Keyring struct {
	store     *credential.Store
	accountID string
	now       func() time.Time
}

// NewKeyring returns the session provider for accountID.
func NewKeyring(store *credential.Store, accountID string) *Keyring {
	return &Keyring{
		store:     store,
		accountID: accountID,
		now:       time.Now,
	}
}

// Cookie returns the stored session cookie.
func (k *Keyring) Cookie() (string, error) {
	cookie, err := k.store.Get(credential.SessionKey(k.accountID))
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return "", ErrNoSession
		}
		return "", err
	}
	if cookie == "" {
		return "", ErrNoSession
	}
	return cookie, nil
}

// Active reports whether a cookie is stored and, when it is a JWT carrying
// an expiry, that the expiry lies in the future.
func (k *Keyring) Active() bool {
	cookie, err := k.Cookie()
	if err != nil {
		return false
	}
	exp, ok := Expiry(cookie)
	if !ok {
		return true
	}
	return k.now().Before(exp)
}

// Save stores a new session cookie.
func (k *Keyring) Save(cookie string) error {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return fmt.Errorf("saving session: empty cookie")
	}
	return k.store.Set(credential.SessionKey(k.accountID), cookie)
}

// Clear removes the stored cookie, ending the session.
func (k *Keyring) Clear() error {
	return k.store.Delete(credential.SessionKey(k.accountID))
}

// Expiry returns the exp claim of a JWT cookie. The signature is not
// checked; the backend remains the authority on validity. ok is false for
// opaque cookies and tokens without exp.
func Expiry(cookie string) (exp time.Time, ok bool) {
	token, _, err := jwt.NewParser().ParseUnverified(cookie, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	date, err := token.Claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// Watch calls apply with p.Active() immediately and then every interval
// until ctx ends. Controller.Start is idempotent, so apply may be called
// with an unchanged value.
func Watch(
	ctx context.Context,
	p Provider,
	interval time.Duration,
	apply func(active bool),
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	apply(p.Active())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			apply(p.Active())
		}
	}
}
