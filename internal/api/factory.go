package api

import (
	"encoding/json"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// protectedFields are never taken from an update body
var protectedFields = []string{"id", "createdAt", "version"}

// Resource describes a collection served by the generic handlers
type Resource[T any] struct {
	Schema  *query.Schema
	Service Service[T]
	New     func() *T

	// ParentParam names the path parameter that scopes a nested list to
	// the ParentField of the schema, e.g. the reviews of one tour.
	ParentParam string
	ParentField string

	// Expand loads related documents on single reads
	Expand bool

	// Prepare fills in fields derived from the request before create
	Prepare func(ctx *fasthttp.RequestCtx, v *T) error
}

// getAll lists the resource through the query pipeline
func getAll[T any](s *Server, r *Resource[T]) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		features := query.NewFeatures(query.New(), r.Schema, queryParams(ctx))

		if r.ParentParam != "" && ctx.UserValue(r.ParentParam) != nil {
			parent, err := pathID(ctx, r.ParentParam)
			if err != nil {
				s.sendError(ctx, err)
				return
			}
			features.Scope(r.ParentField, parent.String())
		}

		q, err := features.Apply()
		if err != nil {
			s.sendError(ctx, err)
			return
		}

		docs, err := r.Service.List(ctx, q)
		if err != nil {
			s.sendError(ctx, err)
			return
		}

		out := make([]map[string]interface{}, 0, len(docs))
		for _, doc := range docs {
			projected, err := q.Projection.Apply(doc)
			if err != nil {
				s.sendError(ctx, err)
				return
			}
			out = append(out, projected)
		}

		s.sendJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
			"status":  "success",
			"results": len(out),
			"data":    map[string]interface{}{"data": out},
		})
	}
}

// getOne reads a single document by the id path parameter
func getOne[T any](s *Server, r *Resource[T]) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, err := pathID(ctx, "id")
		if err != nil {
			s.sendError(ctx, err)
			return
		}

		doc, err := r.Service.Get(ctx, id, r.Expand)
		if err != nil {
			s.sendError(ctx, err)
			return
		}

		s.sendDocument(ctx, fasthttp.StatusOK, r.Schema, doc)
	}
}

// createOne decodes, validates and stores a new document
func createOne[T any](s *Server, r *Resource[T]) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		doc := r.New()
		if err := s.parseJSONBody(ctx, doc); err != nil {
			s.sendError(ctx, err)
			return
		}

		if r.Prepare != nil {
			if err := r.Prepare(ctx, doc); err != nil {
				s.sendError(ctx, err)
				return
			}
		}

		created, err := r.Service.Create(ctx, doc)
		if err != nil {
			s.sendError(ctx, err)
			return
		}

		s.sendDocument(ctx, fasthttp.StatusCreated, r.Schema, created)
	}
}

// updateOne merges the body onto the stored document and saves the result
// after validation
func updateOne[T any](s *Server, r *Resource[T]) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, err := pathID(ctx, "id")
		if err != nil {
			s.sendError(ctx, err)
			return
		}

		var patch map[string]json.RawMessage
		if err := s.parseJSONBody(ctx, &patch); err != nil {
			s.sendError(ctx, err)
			return
		}
		for _, field := range protectedFields {
			delete(patch, field)
		}

		doc, err := r.Service.Get(ctx, id, false)
		if err != nil {
			s.sendError(ctx, err)
			return
		}

		raw, err := json.Marshal(patch)
		if err != nil {
			s.sendError(ctx, err)
			return
		}
		if err := json.Unmarshal(raw, doc); err != nil {
			s.sendError(ctx, apperror.BadRequest("Invalid input data. "+err.Error()))
			return
		}

		updated, err := r.Service.Update(ctx, doc)
		if err != nil {
			s.sendError(ctx, err)
			return
		}

		s.sendDocument(ctx, fasthttp.StatusOK, r.Schema, updated)
	}
}

// deleteOne removes a document and answers with an empty 204
func deleteOne[T any](s *Server, r *Resource[T]) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, err := pathID(ctx, "id")
		if err != nil {
			s.sendError(ctx, err)
			return
		}

		if err := r.Service.Delete(ctx, id); err != nil {
			s.sendError(ctx, err)
			return
		}

		s.sendNoContent(ctx)
	}
}

// sendDocument sends a single document with the schema's default projection
func (s *Server) sendDocument(ctx *fasthttp.RequestCtx, statusCode int, schema *query.Schema, doc interface{}) {
	out, err := defaultProjection(schema).Apply(doc)
	if err != nil {
		s.sendError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, statusCode, map[string]interface{}{"data": out})
}

// defaultProjection hides the schema's reserved metadata field
func defaultProjection(schema *query.Schema) query.Projection {
	if schema == nil || schema.Reserved == "" {
		return query.Projection{}
	}
	return query.Projection{Exclude: []string{schema.Reserved}}
}

func queryParams(ctx *fasthttp.RequestCtx) query.Params {
	params := query.Params{}
	ctx.QueryArgs().VisitAll(func(key, value []byte) {
		params.Add(string(key), string(value))
	})
	return params
}

func pathID(ctx *fasthttp.RequestCtx, param string) (uuid.UUID, error) {
	raw, _ := ctx.UserValue(param).(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &apperror.CastError{Field: param, Value: raw}
	}
	return id, nil
}
