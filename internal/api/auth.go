package api

import (
	"fmt"
	"time"

	"github.com/denzelpenzel/tours/internal/models"
	"github.com/valyala/fasthttp"
)

// signUpHandler registers a user with the default role
func (s *Server) signUpHandler(ctx *fasthttp.RequestCtx) {
	var req models.SignUp
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendError(ctx, err)
		return
	}

	user, token, err := s.auth.SignUp(ctx, &req)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	s.sendToken(ctx, fasthttp.StatusCreated, user, token)
}

// signInHandler exchanges credentials for a session token
func (s *Server) signInHandler(ctx *fasthttp.RequestCtx) {
	var req models.SignIn
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendError(ctx, err)
		return
	}

	user, token, err := s.auth.SignIn(ctx, &req)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	s.sendToken(ctx, fasthttp.StatusOK, user, token)
}

// logoutHandler overwrites the session cookie with a short-lived dummy
func (s *Server) logoutHandler(ctx *fasthttp.RequestCtx) {
	s.setSessionCookie(ctx, "loggedout", 10*time.Second)
	s.sendJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"status": "success"})
}

// forgotPasswordHandler mails a reset link to the account owner
func (s *Server) forgotPasswordHandler(ctx *fasthttp.RequestCtx) {
	var req struct {
		Email string `json:"email"`
	}
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendError(ctx, err)
		return
	}

	resetURL := func(token string) string {
		scheme := "http"
		if ctx.IsTLS() {
			scheme = "https"
		}
		return fmt.Sprintf("%s://%s/api/v1/users/reset-password/%s", scheme, ctx.Host(), token)
	}

	if err := s.auth.ForgotPassword(ctx, req.Email, resetURL); err != nil {
		s.sendError(ctx, err)
		return
	}

	s.sendJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

// resetPasswordHandler sets a new password for the holder of a reset token
func (s *Server) resetPasswordHandler(ctx *fasthttp.RequestCtx) {
	var req models.Password
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendError(ctx, err)
		return
	}

	token, _ := ctx.UserValue("token").(string)
	user, session, err := s.auth.ResetPassword(ctx, token, &req)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	s.sendToken(ctx, fasthttp.StatusOK, user, session)
}

// updatePasswordHandler changes the password of the current user
func (s *Server) updatePasswordHandler(ctx *fasthttp.RequestCtx) {
	var req models.PasswordUpdate
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendError(ctx, err)
		return
	}

	user, token, err := s.auth.UpdatePassword(ctx, currentUser(ctx).ID, &req)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	s.sendToken(ctx, fasthttp.StatusOK, user, token)
}

// sendToken answers with a fresh session token in the body and the cookie
func (s *Server) sendToken(ctx *fasthttp.RequestCtx, statusCode int, user *models.User, token string) {
	s.setSessionCookie(ctx, token, s.config.JWT.CookieExpires)

	s.sendJSON(ctx, statusCode, map[string]interface{}{
		"status": "success",
		"token":  token,
		"data":   map[string]interface{}{"user": user},
	})
}

func (s *Server) setSessionCookie(ctx *fasthttp.RequestCtx, value string, ttl time.Duration) {
	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)

	cookie.SetKey(cookieName)
	cookie.SetValue(value)
	cookie.SetPath("/")
	cookie.SetExpire(time.Now().Add(ttl))
	cookie.SetHTTPOnly(true)
	cookie.SetSecure(s.config.IsProduction())
	cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)

	ctx.Response.Header.SetCookie(cookie)
}
