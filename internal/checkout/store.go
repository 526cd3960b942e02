package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
)

// sessionKV is the slice of the redis client the session store needs.
type sessionKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CheckoutSessionKey(id string) string
}

// sessionStore keeps one JSON-encoded session per buyer with a sliding TTL:
// every save rewrites the key with the full TTL, so an active checkout never
// expires mid-wizard.
type sessionStore struct {
	kv  sessionKV
	ttl time.Duration
}

func (st *sessionStore) save(ctx context.Context, sess Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout session")
	}
	key := st.kv.CheckoutSessionKey(sess.BuyerID.String())
	if err := st.kv.Set(ctx, key, string(payload), st.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store checkout session")
	}
	return nil
}

func (st *sessionStore) find(ctx context.Context, buyerID uuid.UUID) (*Session, error) {
	key := st.kv.CheckoutSessionKey(buyerID.String())
	raw, err := st.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active checkout session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session")
	}
	return &sess, nil
}

func (st *sessionStore) delete(ctx context.Context, buyerID uuid.UUID) error {
	return st.kv.Del(ctx, st.kv.CheckoutSessionKey(buyerID.String()))
}
