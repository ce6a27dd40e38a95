package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/socialnet-app/socialnet/internal/auth"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/service"
)

// PostHandler exposes the feed, single posts, and every engagement action
// hanging off a post: likes, reactions, comments and shares.
type PostHandler struct {
	posts      *service.PostService
	engagement *service.EngagementService
	images     *ImageStore
	logger     *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts *service.PostService, engagement *service.EngagementService, images *ImageStore, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		posts:      posts,
		engagement: engagement,
		images:     images,
		logger:     logger,
	}
}

// viewerID returns the authenticated user's ID, or "" on OptionalAuth routes
// with no session.
func viewerID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

type postListResponse struct {
	Posts      []model.Post       `json:"posts"`
	Pagination service.Pagination `json:"pagination"`
}

// HandleFeed returns the public feed, newest first.
//
// HTTP: GET /api/posts?page&limit
func (h *PostHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	posts, meta, err := h.posts.Feed(r.Context(), page, limit, viewerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, postListResponse{Posts: posts, Pagination: meta})
}

// HandleGet returns a single post.
//
// HTTP: GET /api/posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), r.PathValue("id"), viewerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleByUser lists a user's posts.
//
// HTTP: GET /api/posts/user/{username}?page&limit
func (h *PostHandler) HandleByUser(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	posts, meta, err := h.posts.PostsByUser(r.Context(), r.PathValue("username"), page, limit, viewerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, postListResponse{Posts: posts, Pagination: meta})
}

// HandleLikedByUser lists the posts a user has liked.
//
// HTTP: GET /api/posts/user/{username}/likes?page&limit
func (h *PostHandler) HandleLikedByUser(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	posts, meta, err := h.posts.LikedByUser(r.Context(), r.PathValue("username"), page, limit, viewerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, postListResponse{Posts: posts, Pagination: meta})
}

// HandleMediaByUser flattens a user's post images for the profile grid.
//
// HTTP: GET /api/posts/user/{username}/media
func (h *PostHandler) HandleMediaByUser(w http.ResponseWriter, r *http.Request) {
	media, err := h.posts.MediaByUser(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"media": media})
}

type createPostRequest struct {
	Content    string           `json:"content"`
	Images     []model.Image    `json:"images"`
	Visibility model.Visibility `json:"visibility"`
}

type postResponse struct {
	Message string      `json:"message"`
	Post    *model.Post `json:"post"`
}

// HandleCreate creates a post. Accepts either JSON or, when the frontend
// attaches a picture, multipart/form-data with "content", "visibility" and
// one or more "image" file parts.
//
// HTTP: POST /api/posts
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createPostRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		images, ok := h.parseMultipartPost(w, r, &req)
		if !ok {
			return
		}
		req.Images = images
	} else if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.posts.Create(r.Context(), userID, req.Content, req.Images, req.Visibility)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, postResponse{Message: "Post created successfully", Post: post})
}

// parseMultipartPost pulls content, visibility and uploaded images out of a
// multipart create request. Returns ok=false once an error response has been
// written.
func (h *PostHandler) parseMultipartPost(w http.ResponseWriter, r *http.Request, req *createPostRequest) ([]model.Image, bool) {
	if err := r.ParseMultipartForm(MaxImageSize * 2); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid multipart request"})
		return nil, false
	}
	req.Content = r.FormValue("content")
	req.Visibility = model.Visibility(r.FormValue("visibility"))

	var images []model.Image
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["image"] {
			file, err := header.Open()
			if err != nil {
				writeError(w, h.logger, err)
				return nil, false
			}
			img, err := h.images.SavePostImage(file, header)
			file.Close()
			if err != nil {
				writeError(w, h.logger, err)
				return nil, false
			}
			images = append(images, img)
		}
	}
	return images, true
}

type updatePostRequest struct {
	Content    string           `json:"content"`
	Visibility model.Visibility `json:"visibility"`
	Images     []model.Image    `json:"images"`
}

// HandleUpdate edits a post. Author-only.
//
// HTTP: PUT /api/posts/{id}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.posts.Update(r.Context(), r.PathValue("id"), userID, req.Content, req.Visibility, req.Images)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, postResponse{Message: "Post updated successfully", Post: post})
}

// HandleDelete removes a post and everything hanging off it. Author-only.
//
// HTTP: DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.posts.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Post deleted successfully"})
}

type likeResponse struct {
	Message string `json:"message"`
	Likes   int    `json:"likes"`
}

// HandleLike likes a post. Liking twice is a 400.
//
// HTTP: POST /api/posts/{id}/like
func (h *PostHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	post, err := h.engagement.Like(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Message: "Post liked", Likes: post.Likes})
}

// HandleUnlike removes a like. Unliking an unliked post is a 400.
//
// HTTP: DELETE /api/posts/{id}/like
func (h *PostHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	post, err := h.engagement.Unlike(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Message: "Post unliked", Likes: post.Likes})
}

type reactRequest struct {
	Type model.ReactionKind `json:"type"`
}

type reactionResponse struct {
	Message    string         `json:"message"`
	Reactions  map[string]int `json:"reactions"`
	MyReaction string         `json:"myReaction,omitempty"`
}

// HandleReact toggles a reaction on a post: none sets it, the same kind
// removes it, a different kind overwrites it.
//
// HTTP: POST /api/posts/{id}/react
func (h *PostHandler) HandleReact(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, model.SubjectPost, r.PathValue("id"))
}

// HandleRemoveReaction clears the viewer's reaction, whatever its kind.
//
// HTTP: DELETE /api/posts/{id}/react
func (h *PostHandler) HandleRemoveReaction(w http.ResponseWriter, r *http.Request) {
	h.removeReaction(w, r, model.SubjectPost, r.PathValue("id"))
}

// HandleCommentReact runs the same reaction toggle against a comment.
//
// HTTP: POST /api/comments/{id}/react
func (h *PostHandler) HandleCommentReact(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, model.SubjectComment, r.PathValue("id"))
}

func (h *PostHandler) react(w http.ResponseWriter, r *http.Request, subject model.SubjectType, subjectID string) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req reactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reaction, err := h.engagement.React(r.Context(), subject, subjectID, userID, req.Type)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := reactionResponse{Message: "Reaction removed"}
	if reaction != nil {
		resp.Message = "Reaction saved"
		resp.MyReaction = string(reaction.Kind)
	}
	counts, err := h.engagement.ReactionSummary(r.Context(), subject, subjectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp.Reactions = counts
	writeJSON(w, http.StatusOK, resp)
}

func (h *PostHandler) removeReaction(w http.ResponseWriter, r *http.Request, subject model.SubjectType, subjectID string) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.engagement.RemoveReaction(r.Context(), subject, subjectID, userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	counts, err := h.engagement.ReactionSummary(r.Context(), subject, subjectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reactionResponse{Message: "Reaction removed", Reactions: counts})
}

type shareResponse struct {
	Message string `json:"message"`
	Shares  int    `json:"shares"`
}

// HandleShare shares a post. Sharing twice is a 400.
//
// HTTP: POST /api/posts/{id}/share
func (h *PostHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	post, err := h.engagement.Share(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{Message: "Post shared", Shares: post.Shares})
}

// HandleUnshare removes the viewer's share.
//
// HTTP: DELETE /api/posts/{id}/share
func (h *PostHandler) HandleUnshare(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	post, err := h.engagement.Unshare(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{Message: "Post unshared", Shares: post.Shares})
}

type addCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId"`
}

type addCommentResponse struct {
	Message  string         `json:"message"`
	Comment  *model.Comment `json:"comment"`
	Comments int            `json:"comments"`
}

// HandleAddComment adds a comment (or a reply, when parentId is set).
//
// HTTP: POST /api/posts/{id}/comment
func (h *PostHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	postID := r.PathValue("id")

	var req addCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.engagement.AddComment(r.Context(), postID, userID, req.Content, req.ParentID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	post, err := h.posts.Get(r.Context(), postID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, addCommentResponse{
		Message:  "Comment added",
		Comment:  comment,
		Comments: post.Comments,
	})
}

type commentListResponse struct {
	Comments   []model.Comment    `json:"comments"`
	Pagination service.Pagination `json:"pagination"`
}

// HandleComments lists a post's comments, oldest first.
//
// HTTP: GET /api/posts/{id}/comments?page&limit
func (h *PostHandler) HandleComments(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	comments, meta, err := h.engagement.Comments(r.Context(), r.PathValue("id"), page, limit, viewerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, commentListResponse{Comments: comments, Pagination: meta})
}

// HandleDeleteComment removes a comment. Allowed for the comment's author
// and for the author of the post it sits on.
//
// HTTP: DELETE /api/comments/{id}
func (h *PostHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.engagement.DeleteComment(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Comment deleted"})
}
