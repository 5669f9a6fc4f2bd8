package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	. "github.com/halcyon-social/halcyon"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	signingKey := []byte(env("AUTH_SIGNING_KEY", "insecure-dev-key"))

	accounts, follows, tokens := buildRepositories()

	svc := NewService(accounts, follows, tokens,
		NewIdentityGenerator(), NewCredentialEncoder(),
		NewJWTIssuer(signingKey), NewLogDispatcher())

	authed := func(h http.Handler) http.Handler { return RequireAuth(h, signingKey) }

	router := httprouter.New()
	router.Handler(http.MethodPost, "/v1/accounts", RegisterAccountHandler(svc))
	router.Handler(http.MethodPost, "/v1/sessions", LoginHandler(svc))
	router.Handler(http.MethodGet, "/v1/accounts/:name", GetAccountHandler(svc))
	router.Handler(http.MethodPatch, "/v1/accounts/:name", authed(EditAccountHandler(svc)))
	router.Handler(http.MethodPost, "/v1/accounts/:name/verify", VerifyMailHandler(svc))
	router.Handler(http.MethodPost, "/v1/accounts/:name/verify/resend", ResendVerificationHandler(svc))
	router.Handler(http.MethodPut, "/v1/accounts/:name/freeze", authed(FreezeHandler(svc)))
	router.Handler(http.MethodDelete, "/v1/accounts/:name/freeze", authed(UnfreezeHandler(svc)))
	router.Handler(http.MethodPut, "/v1/accounts/:name/silence", authed(SilenceHandler(svc)))
	router.Handler(http.MethodDelete, "/v1/accounts/:name/silence", authed(UnsilenceHandler(svc)))
	router.Handler(http.MethodGet, "/v1/accounts/:name/followers", GetFollowersHandler(svc))
	router.Handler(http.MethodGet, "/v1/accounts/:name/following", GetFollowingHandler(svc))
	router.Handler(http.MethodPost, "/v1/accounts/:name/followers", authed(FollowHandler(svc)))
	router.Handler(http.MethodDelete, "/v1/accounts/:name/followers", authed(UnfollowHandler(svc)))
	router.Handler(http.MethodPost, "/v1/accounts/:name/blocks", authed(BlockHandler(svc)))
	router.Handler(http.MethodDelete, "/v1/accounts/:name/blocks", authed(UnblockHandler(svc)))

	addr := env("HALCYON_ADDR", ":8090")
	log.Printf("Server started. Listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, router))
}

// buildRepositories selects the backend once at process start: Mongo for
// accounts and follow edges plus Redis for verification tokens, or the
// in-memory stores.
func buildRepositories() (AccountRepository, FollowRepository, VerifyTokenRepository) {
	if env("HALCYON_BACKEND", "inmem") != "mongo" {
		return NewAccountRepository(), NewFollowRepository(), NewVerifyTokenRepository()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(env("HALCYON_MONGO_URI", "mongodb://127.0.0.1:27017")))
	if err != nil {
		log.Fatal(err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal(err)
	}
	db := client.Database("halcyon")

	rdb := redis.NewClient(&redis.Options{Addr: env("HALCYON_REDIS_ADDR", "127.0.0.1:6379")})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal(err)
	}

	return NewMongoAccountRepository(db.Collection("accounts")),
		NewMongoFollowRepository(db.Collection("follows"), db.Collection("blocks")),
		NewRedisTokenRepository(rdb)
}
