package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"littlesteps/internal/models"
	"littlesteps/internal/profile"
	"littlesteps/internal/validation"
)

// ProfileHandler serves profile management, detail and selection
type ProfileHandler struct {
	*Base
	maxPhotoBytes int64
}

// NewProfileHandler creates a profile handler accepting photos up to maxPhotoBytes
func NewProfileHandler(base *Base, maxPhotoBytes int64) *ProfileHandler {
	return &ProfileHandler{Base: base, maxPhotoBytes: maxPhotoBytes}
}

func (h *ProfileHandler) newForm(r *http.Request) *ProfileFormView {
	return &ProfileFormView{
		Heading:     "Add New Child Profile",
		Description: "Create a new profile to track your child's development journey",
		Action:      "/profiles",
		Submit:      "Create Profile",
		CSRFToken:   h.mw.CSRFToken(r),
		Input:       models.ProfileInput{Gender: models.GenderMale},
		Genders:     models.Genders,
	}
}

func (h *ProfileHandler) editForm(r *http.Request, p models.ChildProfile) *ProfileFormView {
	return &ProfileFormView{
		Heading:     "Edit Profile",
		Description: "Update your child's information",
		Action:      "/profiles/" + p.ID + "/update",
		Submit:      "Save Changes",
		CSRFToken:   h.mw.CSRFToken(r),
		Input:       models.InputFrom(p),
		Genders:     models.Genders,
		HasPhoto:    p.Photo != "",
	}
}

func (h *ProfileHandler) renderManagement(w http.ResponseWriter, r *http.Request, st *profile.Store, status int, form *ProfileFormView, flash *Flash) {
	data := h.pageData(w, r, st, "Profile Management", "", ProfileManagementView{
		Form:     form,
		Profiles: st.List(),
	})
	if flash != nil {
		data.Flash = flash
	}
	h.render(w, status, "profile_management", data)
}

// ShowManagement lists profiles. ?new=1 opens the add dialog and
// ?edit=<id> opens the edit dialog.
func (h *ProfileHandler) ShowManagement(w http.ResponseWriter, r *http.Request) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}

	var form *ProfileFormView
	if id := r.URL.Query().Get("edit"); id != "" {
		if p, found := st.Get(id); found {
			form = h.editForm(r, p)
		}
	} else if r.URL.Query().Get("new") != "" {
		form = h.newForm(r)
	}

	h.renderManagement(w, r, st, http.StatusOK, form, nil)
}

// ShowDetail shows the selected child's profile
func (h *ProfileHandler) ShowDetail(w http.ResponseWriter, r *http.Request) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}
	data := h.pageData(w, r, st, "Child Profile", "", ProfileDetailView{
		Areas: h.catalog().Overview.Areas,
	})
	h.render(w, http.StatusOK, "profile_detail", data)
}

// Create adds a profile and selects it
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}

	in, photo, err := h.parseProfileForm(r)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}
	if photo.set {
		in.Photo = photo.value
	}

	errs := h.validate(in, photo)
	if errs != nil {
		form := h.newForm(r)
		form.Input, form.Errors = in, errs
		h.renderManagement(w, r, st, http.StatusUnprocessableEntity, form, formFlash(errs))
		return
	}

	p, err := st.Add(r.Context(), in)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Failed to add profile", err)
		return
	}
	h.logger.Info("Profile created", zap.String("device", GetDeviceFromContext(r.Context())), zap.String("profile", p.ID))

	setFlash(w, r, Flash{Kind: "success", Title: "Profile Created", Message: fmt.Sprintf("%s's profile has been added successfully", p.Name)})
	redirect(w, r, "/profile-management")
}

// Update replaces a profile's fields. The photo is kept unless a new one
// is uploaded or removal is requested.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	current, found := st.Get(id)
	if !found {
		h.notFound(w, r, st)
		return
	}

	in, photo, err := h.parseProfileForm(r)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}
	in.Photo = current.Photo
	if photo.set {
		in.Photo = photo.value
	}

	if errs := h.validate(in, photo); errs != nil {
		form := h.editForm(r, current)
		form.Input, form.Errors = in, errs
		h.renderManagement(w, r, st, http.StatusUnprocessableEntity, form, formFlash(errs))
		return
	}

	if _, found, err = st.Update(r.Context(), id, models.UpdateFromInput(in)); err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Failed to update profile", err)
		return
	}
	if !found {
		h.notFound(w, r, st)
		return
	}

	setFlash(w, r, Flash{Kind: "success", Title: "Profile Updated", Message: "Changes have been saved successfully"})
	redirect(w, r, "/profile-management")
}

// Delete asks for confirmation, then removes the profile
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	p, found := st.Get(id)
	if !found {
		h.notFound(w, r, st)
		return
	}

	if r.PostFormValue("confirm") != "yes" {
		data := h.pageData(w, r, st, "Delete Profile", "", ProfileDeleteView{Profile: p})
		h.render(w, http.StatusOK, "profile_delete", data)
		return
	}

	deleted, err := st.Delete(r.Context(), id)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Failed to delete profile", err)
		return
	}
	if deleted {
		h.logger.Info("Profile deleted", zap.String("device", GetDeviceFromContext(r.Context())), zap.String("profile", id))
		setFlash(w, r, Flash{Kind: "success", Title: "Profile Deleted", Message: "The profile has been removed"})
	}
	redirect(w, r, "/profile-management")
}

// Select makes a profile current and returns to the submitting page.
// Unknown ids leave the selection alone.
func (h *ProfileHandler) Select(w http.ResponseWriter, r *http.Request) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}

	if err := st.Select(r.Context(), r.PathValue("id")); err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Failed to select profile", err)
		return
	}
	redirect(w, r, localPath(r.PostFormValue("return_to"), "/"))
}

func (h *ProfileHandler) notFound(w http.ResponseWriter, r *http.Request, st *profile.Store) {
	data := h.pageData(w, r, st, "Page Not Found", "", NotFoundView{Path: r.URL.Path})
	h.render(w, http.StatusNotFound, "not_found", data)
}

func (h *ProfileHandler) validate(in models.ProfileInput, photo photoUpload) validation.Errors {
	var errs validation.Errors
	if err := validation.ValidateProfile(in, h.maxPhotoBytes, h.now()); err != nil {
		if !errors.As(err, &errs) {
			errs = validation.Errors{{Field: "form", Message: err.Error()}}
		}
	}
	if photo.err != nil {
		errs = append(errs, *photo.err)
	}
	return errs
}

// formFlash explains a rejected profile form
func formFlash(errs validation.Errors) *Flash {
	if errs.MissingRequired() {
		return &Flash{Kind: "error", Title: "Missing Information", Message: "Please fill in required fields"}
	}
	return &Flash{Kind: "error", Title: "Invalid Information", Message: errs.Error()}
}

type photoUpload struct {
	set   bool // replace the stored photo with value
	value string
	err   *validation.ValidationError
}

func (h *ProfileHandler) parseProfileForm(r *http.Request) (models.ProfileInput, photoUpload, error) {
	if err := r.ParseMultipartForm(h.maxPhotoBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return models.ProfileInput{}, photoUpload{}, err
	}

	field := func(name string) string {
		return strings.TrimSpace(r.PostFormValue(name))
	}
	in := models.ProfileInput{
		Name:              field("name"),
		Age:               field("age"),
		DateOfBirth:       field("dateOfBirth"),
		Gender:            models.Gender(strings.ToLower(field("gender"))),
		SpecialNeeds:      field("specialNeeds"),
		LearningGoals:     field("learningGoals"),
		MedicalNotes:      field("medicalNotes"),
		AssignedCaregiver: field("assignedCaregiver"),
	}
	if in.Gender == "" {
		in.Gender = models.GenderMale
	}

	var photo photoUpload
	if field("removePhoto") == "yes" {
		photo.set = true
	}

	file, _, err := r.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, photo, nil
	case err != nil:
		return in, photo, err
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, h.maxPhotoBytes+1))
	if err != nil {
		return in, photo, err
	}
	if len(raw) == 0 {
		return in, photo, nil
	}
	if int64(len(raw)) > h.maxPhotoBytes {
		photo.err = &validation.ValidationError{Field: "photo", Message: fmt.Sprintf("photo must be at most %d KB", h.maxPhotoBytes/1024)}
		return in, photo, nil
	}

	photo.set = true
	photo.value = "data:" + http.DetectContentType(raw) + ";base64," + base64.StdEncoding.EncodeToString(raw)
	return in, photo, nil
}
