package api

import (
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/repository"
	"github.com/valyala/fasthttp"
)

func (s *Server) userResource() *Resource[models.User] {
	return &Resource[models.User]{
		Schema:  repository.UserSchema,
		Service: s.users,
		New:     models.NewUser,
	}
}

// withCurrentUserID points the id path parameter at the current user so
// the regular single read can serve /me
func (s *Server) withCurrentUserID(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetUserValue("id", currentUser(ctx).ID.String())
		next(ctx)
	}
}

// updateMeHandler changes the profile of the current user
func (s *Server) updateMeHandler(ctx *fasthttp.RequestCtx) {
	var req models.ProfileUpdate
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendError(ctx, err)
		return
	}

	user, err := s.users.UpdateMe(ctx, currentUser(ctx).ID, &req)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, fasthttp.StatusOK, map[string]interface{}{"user": user})
}

// deleteMeHandler deactivates the current user
func (s *Server) deleteMeHandler(ctx *fasthttp.RequestCtx) {
	if err := s.users.Deactivate(ctx, currentUser(ctx).ID); err != nil {
		s.sendError(ctx, err)
		return
	}

	s.sendNoContent(ctx)
}

// createUserHandler points clients to sign-up; accounts are never created
// through the admin collection
func (s *Server) createUserHandler(ctx *fasthttp.RequestCtx) {
	s.sendJSON(ctx, fasthttp.StatusInternalServerError, map[string]interface{}{
		"status":  "error",
		"message": "This route is not defined! Please use /signup instead",
	})
}
