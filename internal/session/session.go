package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/AdamBeresnev/funnyjoke/internal/config"
	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/mongodbstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	Lifetime = 24 * time.Hour

	UserIDKey   = "userID"
	FlashKey    = "flash"
	ReturnToKey = "returnTo"

	// submitted form values shown again after a failed login or sign-up
	FormEmailKey = "formEmail"
	FormNameKey  = "formName"
)

// Backends holds the connections a session store may be built on.
// Only the one named by SESSION_STORE has to be set.
type Backends struct {
	SQL   *sql.DB
	Redis *goredis.Client
	Mongo *mongo.Database
}

func New(cfg *config.Config, b Backends) (*scs.SessionManager, error) {
	sm := scs.New()
	sm.Lifetime = Lifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.IsProduction()

	switch cfg.SessionStore {
	case "memory":
		sm.Store = memstore.New()
	case "sqlite":
		if b.SQL == nil {
			return nil, fmt.Errorf("sqlite session store needs a database")
		}
		sm.Store = sqlite3store.New(b.SQL)
	case "redis":
		if b.Redis == nil {
			return nil, fmt.Errorf("redis session store needs a client")
		}
		sm.Store = goredisstore.New(b.Redis)
	case "mongo":
		if b.Mongo == nil {
			return nil, fmt.Errorf("mongo session store needs a database")
		}
		sm.Store = mongodbstore.New(b.Mongo)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}

	return sm, nil
}

// ConnectRedis dials addr and pings it once before returning.
func ConnectRedis(addr, password string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// PopFlash returns and clears the one-shot message stored under FlashKey.
func PopFlash(sm *scs.SessionManager, ctx context.Context) string {
	return sm.PopString(ctx, FlashKey)
}
