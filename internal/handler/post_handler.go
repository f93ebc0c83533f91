package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"studentmedia/internal/apperr"
	"studentmedia/internal/service"
)

// multipart framing allowance on top of the file itself
const multipartOverhead = 1 << 20

type CreatePostResponse struct {
	Message string `json:"message"`
	PostID  string `json:"post_id"`
}

type LikeResponse struct {
	Message string `json:"message"`
	Liked   bool   `json:"liked"`
}

type BookmarkResponse struct {
	Message    string `json:"message"`
	Bookmarked bool   `json:"bookmarked"`
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	user, ok := CurrentUser(r.Context())
	if !ok {
		WriteError(w, apperr.Unauthorized("authentication required"))
		return
	}

	var req service.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, apperr.Validation("invalid request body"))
		return
	}

	post, err := h.PostService.CreatePost(r.Context(), user.ID, req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, CreatePostResponse{Message: "Post created successfully", PostID: post.ID}, http.StatusCreated)
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	user, ok := CurrentUser(r.Context())
	if !ok {
		WriteError(w, apperr.Unauthorized("authentication required"))
		return
	}

	// Pagination parameters
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		WriteError(w, apperr.Validation(err.Error()))
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultFeedLimit)
	if err != nil {
		WriteError(w, apperr.Validation(err.Error()))
		return
	}

	feed, err := h.FeedService.GetFeed(r.Context(), user.ID, skip, limit)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, feed, http.StatusOK)
}

func (h *Handlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	user, ok := CurrentUser(r.Context())
	if !ok {
		WriteError(w, apperr.Unauthorized("authentication required"))
		return
	}

	liked, err := h.PostService.ToggleLike(r.Context(), mux.Vars(r)["id"], user.ID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	message := "Post unliked"
	if liked {
		message = "Post liked"
	}
	writeSuccess(w, LikeResponse{Message: message, Liked: liked}, http.StatusOK)
}

func (h *Handlers) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	user, ok := CurrentUser(r.Context())
	if !ok {
		WriteError(w, apperr.Unauthorized("authentication required"))
		return
	}

	bookmarked, err := h.PostService.ToggleBookmark(r.Context(), mux.Vars(r)["id"], user.ID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	message := "Bookmark removed"
	if bookmarked {
		message = "Post bookmarked"
	}
	writeSuccess(w, BookmarkResponse{Message: message, Bookmarked: bookmarked}, http.StatusOK)
}

func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	user, ok := CurrentUser(r.Context())
	if !ok {
		WriteError(w, apperr.Unauthorized("authentication required"))
		return
	}

	var req service.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, apperr.Validation("invalid request body"))
		return
	}

	if _, err := h.PostService.AddComment(r.Context(), mux.Vars(r)["id"], user.ID, req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, MessageResponse{Message: "Comment added successfully"}, http.StatusCreated)
}

func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	user, ok := CurrentUser(r.Context())
	if !ok {
		WriteError(w, apperr.Unauthorized("authentication required"))
		return
	}

	// setting the size limit from the config
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, apperr.Validation(fmt.Sprintf("file too large (max %d MB)", h.Cfg.MaxUploadSize/(1024*1024))))
		} else {
			WriteError(w, apperr.Validation("failed to read upload"))
		}
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		WriteError(w, apperr.Validation("image file is required"))
		return
	}
	defer file.Close()

	image, err := h.PostService.UploadImage(r.Context(), user.ID, header.Filename, file, header.Size)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, image, http.StatusCreated)
}

func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	user, ok := CurrentUser(r.Context())
	if !ok {
		WriteError(w, apperr.Unauthorized("authentication required"))
		return
	}

	images, err := h.PostService.ListImages(r.Context(), user.ID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, images, http.StatusOK)
}
