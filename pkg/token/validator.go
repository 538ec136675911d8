package token

import (
	"time"

	"github.com/akinalp/mqvi-sync/pkg/cache"
)

// Validator resolves tokens of status and subscriber requests to user ids.
// Successful parses are remembered for ttl; failures are not, so a fixed
// token works on the next try.
type Validator struct {
	users *cache.TTLCache[string, string]
	parse func(raw string) (string, error)
}

func NewValidator(ttl time.Duration) *Validator {
	return &Validator{
		users: cache.New[string, string](ttl, time.Minute),
		parse: UserID,
	}
}

func (v *Validator) UserID(raw string) (string, error) {
	if id, ok := v.users.Get(raw); ok {
		return id, nil
	}
	id, err := v.parse(raw)
	if err != nil {
		return "", err
	}
	v.users.Set(raw, id)
	return id, nil
}

// Close stops the cache sweeper.
func (v *Validator) Close() {
	v.users.Close()
}
