package main

import (
	"errors"
	"net/http"

	"pitchside/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateFieldPayload struct {
	Name            string  `json:"name" validate:"required,max=200"`
	Address         string  `json:"address" validate:"required,max=500"`
	ImageURL        *string `json:"image_url,omitempty" validate:"omitempty,url,max=1000"`
	GrassType       string  `json:"grass_type" validate:"required,max=50"`
	RecommendedShoe string  `json:"recommended_shoe" validate:"required,max=10"`
}

type CreateFieldResponse struct {
	FieldID string `json:"field_id"`
	Status  string `json:"status"`
}

// createFieldHandler godoc
//
//	@Summary		Register a field
//	@Description	Submits a new soccer field; it stays hidden until an admin approves it. The address is geocoded server-side.
//	@Tags			fields
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateFieldPayload	true	"Field details"
//	@Success		201		{object}	CreateFieldResponse
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/fields [post]
func (app *application) createFieldHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateFieldPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	coords := app.geocoder.Resolve(r.Context(), payload.Address)

	field := &store.Field{
		Name:            payload.Name,
		Address:         payload.Address,
		Lat:             coords.Lat,
		Lng:             coords.Lng,
		ImageURL:        payload.ImageURL,
		GrassType:       payload.GrassType,
		RecommendedShoe: payload.RecommendedShoe,
	}

	if err := app.store.Fields.Create(r.Context(), field); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("field registration requested", "field_id", field.ID, "name", field.Name)

	resp := CreateFieldResponse{
		FieldID: field.ID,
		Status:  string(field.Status),
	}

	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listFieldsHandler godoc
//
//	@Summary		List approved fields
//	@Tags			fields
//	@Produce		json
//	@Success		200	{array}	store.Field
//	@Router			/fields [get]
func (app *application) listFieldsHandler(w http.ResponseWriter, r *http.Request) {
	fields, err := app.store.Fields.ListApproved(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, fields); err != nil {
		app.internalServerError(w, r, err)
	}
}

// searchFieldsHandler godoc
//
//	@Summary		Search approved fields
//	@Description	Keyword search over field name and address
//	@Tags			fields
//	@Produce		json
//	@Param			q	query	string	true	"Search keyword"
//	@Success		200	{array}	store.Field
//	@Router			/fields/search [get]
func (app *application) searchFieldsHandler(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		app.badRequestResponse(w, r, codeInvalidInput, errors.New("missing search keyword"))
		return
	}

	fields, err := app.store.Fields.Search(r.Context(), keyword)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, fields); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getFieldHandler godoc
//
//	@Summary		Get field details
//	@Description	Returns an approved field; pending fields are not visible
//	@Tags			fields
//	@Produce		json
//	@Param			fieldID	path		string	true	"Field ID"
//	@Success		200		{object}	store.Field
//	@Failure		404		{object}	error
//	@Router			/fields/{fieldID} [get]
func (app *application) getFieldHandler(w http.ResponseWriter, r *http.Request) {
	fieldID := chi.URLParam(r, "fieldID")

	field, err := app.store.Fields.GetByID(r.Context(), fieldID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeFieldNotFound, errors.New("field not found"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	// A pending field is indistinguishable from a missing one.
	if field.Status != store.FieldStatusApproved {
		app.notFoundResponse(w, r, codeFieldNotFound, errors.New("field not found"))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, field); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ApproveFieldResponse struct {
	FieldID string `json:"field_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// approveFieldHandler godoc
//
//	@Summary		Approve a field
//	@Description	Flips a pending field to approved. Approving an already approved field is a no-op.
//	@Tags			fields
//	@Produce		json
//	@Param			fieldID	path		string	true	"Field ID"
//	@Success		200		{object}	ApproveFieldResponse
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/fields/{fieldID}/approve [post]
func (app *application) approveFieldHandler(w http.ResponseWriter, r *http.Request) {
	fieldID := chi.URLParam(r, "fieldID")

	field, err := app.store.Fields.GetByID(r.Context(), fieldID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeFieldNotFound, errors.New("field not found"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if field.Status == store.FieldStatusApproved {
		resp := ApproveFieldResponse{
			FieldID: field.ID,
			Status:  string(store.FieldStatusApproved),
			Message: "field is already approved",
		}
		if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.store.Fields.Approve(r.Context(), fieldID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeFieldNotFound, errors.New("field not found"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("field approved", "field_id", fieldID)

	resp := ApproveFieldResponse{
		FieldID: field.ID,
		Status:  string(store.FieldStatusApproved),
		Message: "field approved successfully",
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
