package api

import (
	"strconv"
	"strings"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/repository"
	"github.com/denzelpenzel/tours/internal/services"
	"github.com/valyala/fasthttp"
)

func (s *Server) tourResource() *Resource[models.Tour] {
	return &Resource[models.Tour]{
		Schema:  repository.TourSchema,
		Service: s.tours,
		New:     models.NewTour,
		Expand:  true,
	}
}

// aliasTopTours presets the query of the five cheapest, best rated tours
func aliasTopTours(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		args := ctx.QueryArgs()
		args.Set("limit", "5")
		args.Set("sort", "price,-ratingsAverage")
		args.Set("fields", "name,price,ratingsAverage,summary,difficulty")
		next(ctx)
	}
}

// tourStatsHandler returns the per-difficulty statistics
func (s *Server) tourStatsHandler(ctx *fasthttp.RequestCtx) {
	stats, err := s.tours.Stats(ctx)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, fasthttp.StatusOK, map[string]interface{}{"stats": stats})
}

// monthlyPlanHandler returns the tour starts per month of a year
func (s *Server) monthlyPlanHandler(ctx *fasthttp.RequestCtx) {
	raw, _ := ctx.UserValue("year").(string)
	year, err := strconv.Atoi(raw)
	if err != nil {
		s.sendError(ctx, &apperror.CastError{Field: "year", Value: raw})
		return
	}

	plan, err := s.tours.MonthlyPlan(ctx, year)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	s.sendJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(plan),
		"data":    map[string]interface{}{"plan": plan},
	})
}

// toursWithinHandler serves /tours-within/{distance}/center/{latlng}/unit/{unit}
func (s *Server) toursWithinHandler(ctx *fasthttp.RequestCtx) {
	rawDistance, _ := ctx.UserValue("distance").(string)
	distance, err := strconv.ParseFloat(rawDistance, 64)
	if err != nil {
		s.sendError(ctx, &apperror.CastError{Field: "distance", Value: rawDistance})
		return
	}

	lat, lng, unit, err := geoParams(ctx)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	tours, err := s.tours.Within(ctx, distance, lat, lng, unit)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	out := make([]map[string]interface{}, 0, len(tours))
	for _, tour := range tours {
		doc, err := defaultProjection(repository.TourSchema).Apply(tour)
		if err != nil {
			s.sendError(ctx, err)
			return
		}
		out = append(out, doc)
	}

	s.sendJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(out),
		"data":    map[string]interface{}{"data": out},
	})
}

// distancesHandler serves /distances/{latlng}/unit/{unit}
func (s *Server) distancesHandler(ctx *fasthttp.RequestCtx) {
	lat, lng, unit, err := geoParams(ctx)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	distances, err := s.tours.Distances(ctx, lat, lng, unit)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, fasthttp.StatusOK, map[string]interface{}{"data": distances})
}

// geoParams reads the "lat,lng" and unit path parameters
func geoParams(ctx *fasthttp.RequestCtx) (float64, float64, services.Unit, error) {
	invalid := apperror.BadRequest("Please provide latitude and longitude in the format lat,lng.")

	raw, _ := ctx.UserValue("latlng").(string)
	latRaw, lngRaw, ok := strings.Cut(raw, ",")
	if !ok {
		return 0, 0, "", invalid
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return 0, 0, "", invalid
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return 0, 0, "", invalid
	}

	rawUnit, _ := ctx.UserValue("unit").(string)
	unit, err := services.ParseUnit(rawUnit)
	if err != nil {
		return 0, 0, "", err
	}

	return lat, lng, unit, nil
}
