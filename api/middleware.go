package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"BillTrackerSaas/api/auth"
	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/api/utils"
	"BillTrackerSaas/internal/logger"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionLookup returns the live session of a user.
type SessionLookup func(userID string) (*auth.UserSession, bool)

func GetSessionFromCtx(ctx context.Context) *auth.UserSession {
	if session, ok := ctx.Value(sessionKey).(*auth.UserSession); ok {
		return session
	}
	return nil
}

func GetUserIDFromCtx(ctx context.Context) string {
	if s := GetSessionFromCtx(ctx); s != nil {
		return s.UserID
	}
	return ""
}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *auth.UserSession) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// requestUserID reads user_id from a JSON body, a multipart form or the query.
func requestUserID(w http.ResponseWriter, r *http.Request) (string, error) {
	ct := r.Header.Get(constants.ContentTypeText)
	isWrite := r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch
	switch {
	case isWrite && strings.HasPrefix(ct, constants.ContentTypeJSON):
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		var bodyMap map[string]interface{}
		if len(bodyBytes) > 0 {
			if err := json.Unmarshal(bodyBytes, &bodyMap); err != nil {
				return "", errors.New(constants.ErrInvalidJSON)
			}
		}
		if uid, ok := bodyMap[constants.KeyUserID].(string); ok {
			return uid, nil
		}
	case isWrite && strings.HasPrefix(ct, constants.ContentTypeMultipart):
		if err := utils.ParseUploadForm(w, r); err != nil {
			return "", err
		}
		if uid := r.FormValue(constants.KeyUserID); uid != "" {
			return uid, nil
		}
	}
	return r.URL.Query().Get(constants.KeyUserID), nil
}

// SessionMiddleware rejects requests whose user_id has no active session and
// stores the session in the request context.
func SessionMiddleware(lookup SessionLookup) func(http.Handler) http.Handler {
	if lookup == nil {
		lookup = auth.SessionForUser
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := requestUserID(w, r)
			if err != nil {
				if errors.Is(err, utils.ErrFileTooLarge) {
					RespondWithCode(w, http.StatusBadRequest, constants.CodeUnsupportedFormat, constants.ErrFileTooLarge, constants.ErrFileTooLarge, nil)
					return
				}
				RespondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
			if userID == "" {
				RespondWithCode(w, http.StatusUnauthorized, constants.CodeUnauthorized, constants.ErrMissingUserID, "", nil)
				return
			}

			session, ok := lookup(userID)
			if !ok {
				logger.L().WithField("user_id", userID).Warn("invalid session")
				RespondWithCode(w, http.StatusUnauthorized, constants.CodeUnauthorized, constants.ErrInvalidSession, "", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
