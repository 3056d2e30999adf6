package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore is a sessions.Store that keeps session values in Redis. The
// cookie only carries the signed session id.
type RedisStore struct {
	rdb     *redis.Client
	Codecs  []securecookie.Codec
	Options *sessions.Options

	serializer securecookie.GobEncoder
}

func NewRedisStore(rdb *redis.Client, maxAge int, keyPairs ...[]byte) *RedisStore {
	codecs := securecookie.CodecsFromPairs(keyPairs...)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(maxAge)
		}
	}
	return &RedisStore{
		rdb:     rdb,
		Codecs:  codecs,
		Options: cookieOptions(maxAge),
	}
}

// Get returns the session cached in the request registry or loads it.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing or expired
// session yields a fresh one.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		return session, err
	}

	data, err := s.rdb.Get(r.Context(), redisKeyPrefix+session.ID).Bytes()
	if err == redis.Nil {
		return session, nil
	}
	if err != nil {
		return session, errors.Wrap(err, "load session")
	}
	if err := s.serializer.Deserialize(data, &session.Values); err != nil {
		return session, errors.Wrap(err, "decode session")
	}
	session.IsNew = false
	return session, nil
}

// renew drops the stored copy of session so the next Save issues a new id.
func (s *RedisStore) renew(ctx context.Context, session *sessions.Session) error {
	if session.ID == "" {
		return nil
	}
	if err := s.rdb.Del(ctx, redisKeyPrefix+session.ID).Err(); err != nil {
		return errors.Wrap(err, "delete session")
	}
	session.ID = ""
	return nil
}

// Save writes the session to Redis and sets the cookie. MaxAge <= 0
// deletes it.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()
	if session.Options.MaxAge <= 0 {
		if session.ID != "" {
			if err := s.rdb.Del(ctx, redisKeyPrefix+session.ID).Err(); err != nil {
				return errors.Wrap(err, "delete session")
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	data, err := s.serializer.Serialize(session.Values)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.rdb.Set(ctx, redisKeyPrefix+session.ID, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "store session")
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}
