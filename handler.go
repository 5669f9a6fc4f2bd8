package halcyon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

// The handlers are a thin controller: decode the request, call the service,
// map the sentinel error to a status code. Anything unclassified is a 500.

type ctxKey int

const actorIDKey ctxKey = 0

type accountResponse struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Mail      string    `json:"mail"`
	Nickname  string    `json:"nickname"`
	Bio       string    `json:"bio"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	Frozen    bool      `json:"frozen"`
	Silenced  bool      `json:"silenced"`
	CreatedAt time.Time `json:"created_at"`
	Etag      string    `json:"etag"`
}

func newAccountResponse(a *Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Mail:      a.Mail,
		Nickname:  a.Nickname,
		Bio:       a.Bio,
		Role:      a.Role,
		Status:    a.Status,
		Frozen:    a.Frozen,
		Silenced:  a.Silenced,
		CreatedAt: a.CreatedAt,
		Etag:      a.Etag(),
	}
}

func RegisterAccountHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// Role assignment is not part of the public registration surface.
		req.Role = RoleNormal

		acc, err := svc.Register(req)
		if err != nil {
			encodeError(err, w)
			return
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(newAccountResponse(acc))
	})
}

func LoginHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name       string `json:"name"`
			Passphrase string `json:"passphrase"`
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		pair, err := svc.Authenticate(req.Name, req.Passphrase)
		if err != nil {
			encodeError(err, w)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
		})
	})
}

func GetAccountHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		acc, err := svc.FetchByName(routeName(r))
		if err != nil {
			encodeError(err, w)
			return
		}
		json.NewEncoder(w).Encode(newAccountResponse(acc))
	})
}

func EditAccountHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Etag       string  `json:"etag"`
			Nickname   *string `json:"nickname"`
			Passphrase *string `json:"passphrase"`
			Mail       *string `json:"mail"`
			Bio        *string `json:"bio"`
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		actor, err := actorName(svc, r)
		if err != nil {
			encodeError(err, w)
			return
		}
		target := routeName(r)

		// One field per request: each edit is one optimistic round trip.
		switch {
		case req.Nickname != nil:
			err = svc.EditNickname(req.Etag, target, *req.Nickname, actor)
		case req.Passphrase != nil:
			err = svc.EditPassphrase(req.Etag, target, *req.Passphrase, actor)
		case req.Mail != nil:
			err = svc.EditMail(req.Etag, target, *req.Mail, actor)
		case req.Bio != nil:
			err = svc.EditBio(req.Etag, target, *req.Bio, actor)
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err != nil {
			encodeError(err, w)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func VerifyMailHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token string `json:"token"`
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := svc.VerifyMail(routeName(r), req.Token); err != nil {
			encodeError(err, w)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func ResendVerificationHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.ResendVerification(routeName(r)); err != nil {
			encodeError(err, w)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

// moderationHandler adapts SetFreeze, UndoFreeze, SetSilence and
// UndoSilence, which share a (target, actor) signature.
func moderationHandler(svc Service, action func(target, actor string) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		actor, err := actorName(svc, r)
		if err != nil {
			encodeError(err, w)
			return
		}
		if err := action(routeName(r), actor); err != nil {
			encodeError(err, w)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func FreezeHandler(svc Service) http.Handler { return moderationHandler(svc, svc.SetFreeze) }

func UnfreezeHandler(svc Service) http.Handler { return moderationHandler(svc, svc.UndoFreeze) }

func SilenceHandler(svc Service) http.Handler { return moderationHandler(svc, svc.SetSilence) }

func UnsilenceHandler(svc Service) http.Handler { return moderationHandler(svc, svc.UndoSilence) }

// relationshipHandler adapts Follow, Unfollow, Block and Unblock, which
// share a (from, target) signature with the actor as from.
func relationshipHandler(svc Service, action func(from, target string) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		actor, err := actorName(svc, r)
		if err != nil {
			encodeError(err, w)
			return
		}
		if err := action(actor, routeName(r)); err != nil {
			encodeError(err, w)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func FollowHandler(svc Service) http.Handler { return relationshipHandler(svc, svc.Follow) }

func UnfollowHandler(svc Service) http.Handler { return relationshipHandler(svc, svc.Unfollow) }

func BlockHandler(svc Service) http.Handler { return relationshipHandler(svc, svc.Block) }

func UnblockHandler(svc Service) http.Handler { return relationshipHandler(svc, svc.Unblock) }

func followListHandler(svc Service, list func(name string, offset, limit int) ([]FollowListEntry, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
		if err != nil || offset < 0 {
			offset = 0
		}
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 || limit > 100 {
			limit = 40
		}

		entries, err := list(routeName(r), offset, limit)
		if err != nil {
			encodeError(err, w)
			return
		}
		if entries == nil {
			entries = []FollowListEntry{}
		}
		json.NewEncoder(w).Encode(entries)
	})
}

func GetFollowersHandler(svc Service) http.Handler {
	return followListHandler(svc, svc.FetchFollowers)
}

func GetFollowingHandler(svc Service) http.Handler {
	return followListHandler(svc, svc.FetchFollowing)
}

// RequireAuth rejects requests without a valid bearer access token and
// stores the caller's account ID on the request context.
func RequireAuth(next http.Handler, signingKey []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		id, err := ParseAccessToken(raw, signingKey)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorIDKey, id)))
	})
}

func actorName(svc Service, r *http.Request) (string, error) {
	id, ok := r.Context().Value(actorIDKey).(ID)
	if !ok {
		return "", ErrPermissionDenied
	}
	acc, err := svc.FetchByID(id)
	if err != nil {
		return "", err
	}
	return acc.Name, nil
}

func routeName(r *http.Request) string {
	return httprouter.ParamsFromContext(r.Context()).ByName("name")
}

func encodeError(err error, w http.ResponseWriter) {
	switch {
	case errors.Is(err, ErrNameTaken), errors.Is(err, ErrMailTaken),
		errors.Is(err, ErrAlreadyFollowing), errors.Is(err, ErrAlreadyFrozen),
		errors.Is(err, ErrAlreadySilenced), errors.Is(err, ErrAlreadyVerified):
		w.WriteHeader(http.StatusConflict)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotFollowing):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrReservedName),
		errors.Is(err, ErrInvalidMail), errors.Is(err, ErrWeakPassphrase),
		errors.Is(err, ErrNicknameTooLong), errors.Is(err, ErrBioTooLong),
		errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrCantFollowSelf),
		errors.Is(err, ErrCantUnfollowSelf):
		w.WriteHeader(http.StatusUnprocessableEntity)
	case errors.Is(err, ErrAuthenticationFailed):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrLoginRejected),
		errors.Is(err, ErrFollowingBlocked):
		w.WriteHeader(http.StatusForbidden)
	case errors.Is(err, ErrEtagMismatch):
		w.WriteHeader(http.StatusPreconditionFailed)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
