package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"pitchside/internal/store"

	"github.com/go-chi/chi/v5"
)

var (
	errParentNotFound     = errors.New("parent comment not found")
	errInvalidDepth       = errors.New("replies to replies are not allowed")
	errNotOnThisReview    = errors.New("comment does not belong to this review")
	errCommentNotFound    = errors.New("comment not found")
	errReviewNotFound     = errors.New("review not found")
	errNotTheCommentOwner = errors.New("not the comment owner")
)

// validateCommentParent enforces the two-level thread shape before a
// comment is persisted. A nil parentID means a root comment and needs
// no lookup; otherwise the parent must exist, must itself be a root,
// and must sit on the addressed review.
func (app *application) validateCommentParent(ctx context.Context, reviewID int64, parentID *int64) (*store.Comment, error) {
	if parentID == nil {
		return nil, nil
	}

	parent, err := app.store.Comments.GetByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errParentNotFound
		}
		return nil, err
	}

	if !parent.IsRoot() {
		app.logger.Warnw("rejected nested reply", "parent_id", *parentID)
		return nil, errInvalidDepth
	}

	if parent.ReviewID != reviewID {
		app.logger.Warnw("parent comment on different review", "parent_id", *parentID, "review_id", reviewID)
		return nil, errNotOnThisReview
	}

	return parent, nil
}

type CreateCommentPayload struct {
	Content  string `json:"content" validate:"required,max=1000"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// createCommentHandler godoc
//
//	@Summary		Post a comment on a review
//	@Description	Creates a root comment, or a reply when parent_id names a root comment. Replying to a reply is rejected.
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		integer					true	"Review ID"
//	@Param			payload		body		CreateCommentPayload	true	"Comment"
//	@Success		201			{object}	store.Comment
//	@Failure		400			{object}	error	"Invalid comment depth"
//	@Failure		404			{object}	error	"Review or parent comment not found"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/comments [post]
func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, errors.New("invalid review ID"))
		return
	}

	var payload CreateCommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	if _, err := app.store.Reviews.GetByID(r.Context(), reviewID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeReviewNotFound, errReviewNotFound)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if _, err := app.validateCommentParent(r.Context(), reviewID, payload.ParentID); err != nil {
		switch {
		case errors.Is(err, errParentNotFound):
			app.notFoundResponse(w, r, codeCommentNotFound, err)
		case errors.Is(err, errInvalidDepth):
			app.badRequestResponse(w, r, codeInvalidCommentDepth, err)
		case errors.Is(err, errNotOnThisReview):
			app.badRequestResponse(w, r, codeInvalidInput, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	user := getUserFromContext(r)

	comment := &store.Comment{
		ReviewID: reviewID,
		UserID:   user.ID,
		ParentID: payload.ParentID,
		Content:  payload.Content,
	}

	if err := app.store.Comments.Create(r.Context(), comment); err != nil {
		// The parent can vanish between the guard check and the insert.
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeCommentNotFound, errParentNotFound)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	comment.UserName = user.Name

	if err := app.jsonResponse(w, http.StatusCreated, comment); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getReviewCommentsHandler godoc
//
//	@Summary		List comments on a review
//	@Description	Oldest first, with author display names resolved
//	@Tags			comments
//	@Produce		json
//	@Param			reviewID	path	integer	true	"Review ID"
//	@Success		200	{array}	store.Comment
//	@Failure		404	{object}	error
//	@Router			/reviews/{reviewID}/comments [get]
func (app *application) getReviewCommentsHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, errors.New("invalid review ID"))
		return
	}

	if _, err := app.store.Reviews.GetByID(r.Context(), reviewID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeReviewNotFound, errReviewNotFound)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	comments, err := app.store.Comments.ListByReview(r.Context(), reviewID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, comments); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateCommentPayload struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// fetchOwnedComment loads a comment addressed through a review route
// and verifies it belongs to that review and to the acting user.
func (app *application) fetchOwnedComment(ctx context.Context, reviewID, commentID, actingUserID int64) (*store.Comment, error) {
	comment, err := app.store.Comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errCommentNotFound
		}
		return nil, err
	}

	if comment.ReviewID != reviewID {
		return nil, errNotOnThisReview
	}

	if comment.UserID != actingUserID {
		return nil, errNotTheCommentOwner
	}

	return comment, nil
}

func (app *application) respondCommentAccessError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errCommentNotFound):
		app.notFoundResponse(w, r, codeCommentNotFound, err)
	case errors.Is(err, errNotOnThisReview):
		app.badRequestResponse(w, r, codeInvalidInput, err)
	case errors.Is(err, errNotTheCommentOwner):
		app.forbiddenResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// updateCommentHandler godoc
//
//	@Summary		Edit a comment
//	@Description	Owner-only; only the content can change, never the parent
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		integer					true	"Review ID"
//	@Param			commentID	path		integer					true	"Comment ID"
//	@Param			payload		body		UpdateCommentPayload	true	"New content"
//	@Success		200			{object}	store.Comment
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/comments/{commentID} [patch]
func (app *application) updateCommentHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, errors.New("invalid review ID"))
		return
	}
	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, errors.New("invalid comment ID"))
		return
	}

	var payload UpdateCommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	user := getUserFromContext(r)

	comment, err := app.fetchOwnedComment(r.Context(), reviewID, commentID, user.ID)
	if err != nil {
		app.respondCommentAccessError(w, r, err)
		return
	}

	comment.Content = payload.Content

	if err := app.store.Comments.UpdateContent(r.Context(), comment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeCommentNotFound, errCommentNotFound)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	comment.UserName = user.Name

	if err := app.jsonResponse(w, http.StatusOK, comment); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteCommentHandler godoc
//
//	@Summary		Delete a comment
//	@Description	Owner-only
//	@Tags			comments
//	@Produce		json
//	@Param			reviewID	path	integer	true	"Review ID"
//	@Param			commentID	path	integer	true	"Comment ID"
//	@Success		200	{object}	map[string]string
//	@Failure		403	{object}	error
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/comments/{commentID} [delete]
func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, errors.New("invalid review ID"))
		return
	}
	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, errors.New("invalid comment ID"))
		return
	}

	user := getUserFromContext(r)

	if _, err := app.fetchOwnedComment(r.Context(), reviewID, commentID, user.ID); err != nil {
		app.respondCommentAccessError(w, r, err)
		return
	}

	if err := app.store.Comments.Delete(r.Context(), commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeCommentNotFound, errCommentNotFound)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "comment deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
