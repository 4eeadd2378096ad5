package main

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"pitchside/internal/store"

	"github.com/go-chi/chi/v5"
)

const reviewsPageSize = 10

// aggregateRating is the one place a field's derived rating is
// computed: the arithmetic mean of all ratings, rounded half away from
// zero to one decimal. An empty set yields the 0.0 default.
func aggregateRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0.0
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}

	average := float64(sum) / float64(len(ratings))
	return math.Round(average*10) / 10
}

// recomputeFieldRating re-reads the field's full review set and writes
// the aggregate back. It runs as the last step inside the same
// transaction as the review mutation, so a failed recompute rolls the
// mutation back too.
func (app *application) recomputeFieldRating(ctx context.Context, tx store.Storage, fieldID string) error {
	ratings, err := tx.Reviews.GetRatingsByField(ctx, fieldID)
	if err != nil {
		return err
	}

	return tx.Fields.UpdateRating(ctx, fieldID, aggregateRating(ratings))
}

type CreateReviewPayload struct {
	Content         string   `json:"content" validate:"required,max=1000"`
	Rating          int      `json:"rating" validate:"required,min=1,max=5"`
	GrassType       *string  `json:"grass_type,omitempty" validate:"omitempty,max=50"`
	GrassConditions []string `json:"grass_conditions,omitempty" validate:"omitempty,dive,max=50"`
	RecommendedShoe *string  `json:"recommended_shoe,omitempty" validate:"omitempty,max=50"`
	ShoeLink        *string  `json:"shoe_link,omitempty" validate:"omitempty,url,max=1000"`
}

// createReviewHandler godoc
//
//	@Summary		Post a review
//	@Description	Creates a review on a field and recomputes the field's derived rating in the same transaction
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			fieldID	path		string				true	"Field ID"
//	@Param			payload	body		CreateReviewPayload	true	"Review"
//	@Success		201		{object}	store.Review
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error	"Field not found"
//	@Security		ApiKeyAuth
//	@Router			/fields/{fieldID}/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	fieldID := chi.URLParam(r, "fieldID")

	var payload CreateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	if _, err := app.store.Fields.GetByID(r.Context(), fieldID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeFieldNotFound, errors.New("field not found"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	user := getUserFromContext(r)

	review := &store.Review{
		FieldID:         fieldID,
		UserID:          user.ID,
		Content:         payload.Content,
		Rating:          payload.Rating,
		GrassType:       payload.GrassType,
		GrassConditions: payload.GrassConditions,
		RecommendedShoe: payload.RecommendedShoe,
		ShoeLink:        payload.ShoeLink,
	}

	err := app.store.WithTx(r.Context(), func(tx store.Storage) error {
		if err := tx.Reviews.Create(r.Context(), review); err != nil {
			return err
		}
		return app.recomputeFieldRating(r.Context(), tx, fieldID)
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	review.UserName = user.Name

	if err := app.jsonResponse(w, http.StatusCreated, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getFieldReviewsHandler godoc
//
//	@Summary		List reviews for a field
//	@Description	Newest first, ten per page; pass last_id from the previous page to continue
//	@Tags			reviews
//	@Produce		json
//	@Param			fieldID	path	string	true	"Field ID"
//	@Param			last_id	query	integer	false	"Keyset cursor"
//	@Success		200	{array}	store.Review
//	@Router			/fields/{fieldID}/reviews [get]
func (app *application) getFieldReviewsHandler(w http.ResponseWriter, r *http.Request) {
	fieldID := chi.URLParam(r, "fieldID")

	var lastID int64
	if raw := r.URL.Query().Get("last_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			app.badRequestResponse(w, r, codeInvalidInput, errors.New("invalid last_id"))
			return
		}
		lastID = parsed
	}

	reviews, err := app.store.Reviews.ListByField(r.Context(), fieldID, lastID, reviewsPageSize)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, reviews); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateReviewHandler godoc
//
//	@Summary		Update a review
//	@Description	Owner-only; the field's derived rating is recomputed in the same transaction
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		integer				true	"Review ID"
//	@Param			payload		body		CreateReviewPayload	true	"Review"
//	@Success		200			{object}	store.Review
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [patch]
func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, errors.New("invalid review ID"))
		return
	}

	var payload CreateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeReviewNotFound, errors.New("review not found"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	user := getUserFromContext(r)
	if review.UserID != user.ID {
		app.forbiddenResponse(w, r, errors.New("not the review owner"))
		return
	}

	review.Content = payload.Content
	review.Rating = payload.Rating
	review.GrassType = payload.GrassType
	review.GrassConditions = payload.GrassConditions
	review.RecommendedShoe = payload.RecommendedShoe
	review.ShoeLink = payload.ShoeLink

	err = app.store.WithTx(r.Context(), func(tx store.Storage) error {
		if err := tx.Reviews.Update(r.Context(), review); err != nil {
			return err
		}
		return app.recomputeFieldRating(r.Context(), tx, review.FieldID)
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	review.UserName = user.Name

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteReviewHandler godoc
//
//	@Summary		Delete a review
//	@Description	Owner-only; the field's derived rating is recomputed in the same transaction
//	@Tags			reviews
//	@Produce		json
//	@Param			reviewID	path	integer	true	"Review ID"
//	@Success		200			{object}	map[string]string
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, errors.New("invalid review ID"))
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeReviewNotFound, errors.New("review not found"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	user := getUserFromContext(r)
	if review.UserID != user.ID {
		app.forbiddenResponse(w, r, errors.New("not the review owner"))
		return
	}

	err = app.store.WithTx(r.Context(), func(tx store.Storage) error {
		if err := tx.Reviews.Delete(r.Context(), reviewID); err != nil {
			return err
		}
		return app.recomputeFieldRating(r.Context(), tx, review.FieldID)
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "review deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
