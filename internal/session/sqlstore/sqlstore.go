// Package sqlstore keeps profile sessions in the sqlite settings table.
package sqlstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/blogclient/internal/session"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

type SQLStore struct {
	db  *sql.DB
	key [32]byte
}

// New returns a store over db. Tokens are sealed with a key derived from secret, so the same
// secret must be configured across restarts for stored logins to survive.
func New(db *sql.DB, secret string) (*SQLStore, error) {
	s := &SQLStore{db: db}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("blogclient access token"))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, err
	}
	return s, nil
}

// For returns the store of a single profile.
func (s *SQLStore) For(profile string) session.Store {
	return &profileStore{
		SQLStore: s,
		profile:  profile,
	}
}

func (s *SQLStore) get(ctx context.Context, profile, key string) (value []byte, ok bool) {
	row := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE profile = ? AND key = ?", profile, key)
	err := row.Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Str("profile", profile).Str("key", key).Msg("failed to read setting")
		}
		return nil, false
	}
	return value, true
}

func (s *SQLStore) put(ctx context.Context, profile, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings(profile, key, value, updated) VALUES (?,?,?,?)
		ON CONFLICT(profile, key) DO UPDATE SET value = excluded.value, updated = excluded.updated`,
		profile, key, value, time.Now().Unix())
	if err != nil {
		log.Error().Err(err).Str("profile", profile).Str("key", key).Msg("failed to write setting")
		return session.ErrInternal
	}
	return nil
}

func (s *SQLStore) remove(ctx context.Context, profile, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE profile = ? AND key = ?", profile, key)
	if err != nil {
		log.Error().Err(err).Str("profile", profile).Str("key", key).Msg("failed to delete setting")
		return session.ErrInternal
	}
	return nil
}

func (s *SQLStore) seal(plain string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key), nil
}

func (s *SQLStore) open(box []byte) (string, error) {
	if len(box) < nonceSize {
		return "", session.ErrSealed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", session.ErrSealed
	}
	return string(plain), nil
}

type profileStore struct {
	*SQLStore
	profile string
}

func (p *profileStore) ID() string {
	return p.profile
}

func (p *profileStore) Endpoint(ctx context.Context) (string, bool) {
	v, ok := p.get(ctx, p.profile, session.EndpointKey)
	return string(v), ok
}

func (p *profileStore) SetEndpoint(ctx context.Context, url string) error {
	return p.put(ctx, p.profile, session.EndpointKey, []byte(url))
}

// Token returns the profile's token. A token sealed under another secret is treated as absent.
func (p *profileStore) Token(ctx context.Context) (string, bool) {
	box, ok := p.get(ctx, p.profile, session.TokenKey)
	if !ok {
		return "", false
	}
	token, err := p.open(box)
	if err != nil {
		log.Warn().Err(err).Str("profile", p.profile).Msg("discarding stored token")
		return "", false
	}
	return token, true
}

func (p *profileStore) SetToken(ctx context.Context, token string) error {
	box, err := p.seal(token)
	if err != nil {
		log.Error().Err(err).Msg("failed to seal token")
		return session.ErrInternal
	}
	return p.put(ctx, p.profile, session.TokenKey, box)
}

func (p *profileStore) ClearToken(ctx context.Context) error {
	return p.remove(ctx, p.profile, session.TokenKey)
}
