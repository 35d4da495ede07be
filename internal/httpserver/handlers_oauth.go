package httpserver

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
)

const (
	sessionName          = "enceladus_session"
	sessionKeyUserID     = "user_id"
	sessionKeyOAuthState = "oauth_state"
	sessionKeyCallback   = "oauth_callback"

	oauthTimeout = 10 * time.Second
)

func generateOAuthState() string {
	return uuid.NewString()
}

// handleOAuth starts the reddit login flow. The caller provides the
// frontend URL to land on afterwards; a device that already carries a
// session skips reddit entirely and is redirected there immediately.
func (s *Server) handleOAuth(c echo.Context) error {
	if s.oauthClient == nil {
		return apperr.UnprocessableError("reddit integration is not configured")
	}

	callback := c.QueryParam("callback")
	if callback == "" {
		return apperr.ValidationError("callback query parameter is required")
	}

	session, _ := s.sessionStore.Get(c.Request(), sessionName)

	if raw, ok := session.Values[sessionKeyUserID].(string); ok {
		if userID, err := strconv.ParseInt(raw, 10, 32); err == nil {
			if user, err := s.service.GetUser(c.Request().Context(), int32(userID)); err == nil {
				return s.redirectWithToken(c, callback, user)
			}
		}
	}

	state := generateOAuthState()
	session.Values[sessionKeyOAuthState] = state
	session.Values[sessionKeyCallback] = callback
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperr.InternalError("failed to save session", err)
	}

	return c.Redirect(302, s.oauthClient.AuthCodeURL(state))
}

// handleOAuthCallback exchanges the code, looks up the reddit identity,
// upserts the account, and lands the browser back on the frontend with
// a bearer token in the query string.
func (s *Server) handleOAuthCallback(c echo.Context) error {
	if s.oauthClient == nil {
		return apperr.UnprocessableError("reddit integration is not configured")
	}

	code := c.QueryParam("code")
	if code == "" {
		return apperr.ValidationError("missing code parameter")
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return apperr.ValidationError("invalid session")
	}
	expectedState, ok := session.Values[sessionKeyOAuthState].(string)
	if !ok || expectedState == "" || c.QueryParam("state") != expectedState {
		return apperr.ValidationError("invalid OAuth state")
	}
	callback, _ := session.Values[sessionKeyCallback].(string)
	delete(session.Values, sessionKeyOAuthState)
	delete(session.Values, sessionKeyCallback)

	ctx, cancel := context.WithTimeout(c.Request().Context(), oauthTimeout)
	defer cancel()

	tokens, err := s.oauthClient.ExchangeCode(ctx, code)
	if err != nil {
		return apperr.ExternalError("failed to authenticate with reddit", err)
	}

	username, err := s.oauthClient.Me(ctx, tokens.AccessToken)
	if err != nil {
		return apperr.ExternalError("failed to look up reddit identity", err)
	}
	lang, err := s.oauthClient.Lang(ctx, tokens.AccessToken)
	if err != nil {
		slog.Warn("Failed to fetch reddit language preference", "username", username, "error", err)
		lang = "en"
	}

	user, err := s.service.UpsertRedditUser(ctx, username, lang, tokens.RefreshToken)
	if err != nil {
		return err
	}

	session.Values[sessionKeyUserID] = strconv.FormatInt(int64(user.ID), 10)
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Warn("Failed to save session after OAuth", "error", err)
	}

	if callback == "" {
		token, err := s.issueToken(user.ID)
		if err != nil {
			return apperr.InternalError("failed to issue token", err)
		}
		return c.JSON(200, map[string]any{"token": token, "user": user})
	}

	return s.redirectWithToken(c, callback, user)
}

func (s *Server) redirectWithToken(c echo.Context, callback string, user *domain.User) error {
	token, err := s.issueToken(user.ID)
	if err != nil {
		return apperr.InternalError("failed to issue token", err)
	}

	target, err := url.Parse(callback)
	if err != nil {
		return apperr.ValidationError("invalid callback URL")
	}
	query := target.Query()
	query.Set("user_id", strconv.FormatInt(int64(user.ID), 10))
	query.Set("username", user.RedditUsername)
	query.Set("lang", user.Lang)
	query.Set("token", token)
	target.RawQuery = query.Encode()

	return c.Redirect(302, target.String())
}
