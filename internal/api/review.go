package api

import (
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/repository"
	"github.com/valyala/fasthttp"
)

func (s *Server) reviewResource() *Resource[models.Review] {
	return &Resource[models.Review]{
		Schema:      repository.ReviewSchema,
		Service:     s.reviews,
		New:         models.NewReview,
		ParentParam: "tourId",
		ParentField: "tour",
		Prepare:     setReviewRefs,
	}
}

// setReviewRefs takes the tour from the nested route when present and
// always attributes the review to the current user
func setReviewRefs(ctx *fasthttp.RequestCtx, review *models.Review) error {
	if ctx.UserValue("tourId") != nil {
		tourID, err := pathID(ctx, "tourId")
		if err != nil {
			return err
		}
		review.TourID = tourID
	}
	if user := currentUser(ctx); user != nil {
		review.UserID = user.ID
	}
	return nil
}
