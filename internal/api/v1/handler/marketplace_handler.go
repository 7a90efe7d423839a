package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// MarketplaceHandler handles public course listing endpoints
type MarketplaceHandler struct {
	marketplaceService service.MarketplaceService
	validate           *validator.Validate
	logger             zerolog.Logger
}

// NewMarketplaceHandler creates a new MarketplaceHandler
func NewMarketplaceHandler(marketplaceService service.MarketplaceService, validate *validator.Validate, logger zerolog.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{marketplaceService: marketplaceService, validate: validate, logger: logger}
}

// RegisterRoutes mounts marketplace routes
func (h *MarketplaceHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/marketplace", authMw(http.HandlerFunc(h.handleListings)))
	mux.Handle("/marketplace/", authMw(http.HandlerFunc(h.handleListing)))
}

func (h *MarketplaceHandler) handleListings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.publish(w, r)
	default:
		http.NotFound(w, r)
	}
}

// list godoc
// @Summary Browse marketplace listings
// @Description Lists published courses, most liked first. Filter with ?category=.
// @Tags marketplace
// @Produce json
// @Param category query string false "Category filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} model.MarketplaceCourse
// @Failure 400 {string} string "Invalid category"
// @Router /marketplace [get]
func (h *MarketplaceHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	listings, err := h.marketplaceService.List(r.Context(), userID, r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCategory) {
			http.Error(w, "Invalid category", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to list marketplace: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listings)
}

// publish godoc
// @Summary Publish a course to the marketplace
// @Tags marketplace
// @Accept json
// @Produce json
// @Param listing body dto.MarketplacePublishDTO true "Publish request"
// @Success 201 {object} model.MarketplaceCourse
// @Failure 400 {string} string "Invalid category"
// @Failure 404 {string} string "Course not found"
// @Failure 409 {string} string "Course already published"
// @Router /marketplace [post]
func (h *MarketplaceHandler) publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req dto.MarketplacePublishDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	mc, err := h.marketplaceService.Publish(r.Context(), userID, req.CourseID, req.Category)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCategory):
			http.Error(w, "Invalid category", http.StatusBadRequest)
		case errors.Is(err, service.ErrCourseNotFound):
			http.Error(w, "Course not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrAlreadyPublished):
			http.Error(w, "Course already published", http.StatusConflict)
		default:
			http.Error(w, "Failed to publish course: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(mc)
}

func (h *MarketplaceHandler) handleListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/marketplace/")
	listingID, action, _ := strings.Cut(rest, "/")
	if listingID == "" {
		http.NotFound(w, r)
		return
	}
	switch {
	case r.Method == http.MethodGet && action == "":
		h.get(w, r, userID, listingID)
	case r.Method == http.MethodDelete && action == "":
		h.unpublish(w, r, userID, listingID)
	case r.Method == http.MethodPost && action == "like":
		h.toggleLike(w, r, userID, listingID)
	case r.Method == http.MethodPost && action == "import":
		h.importListing(w, r, userID, listingID)
	default:
		http.NotFound(w, r)
	}
}

// get godoc
// @Summary Get a marketplace listing
// @Tags marketplace
// @Produce json
// @Param listingId path string true "Listing ID"
// @Success 200 {object} model.MarketplaceCourse
// @Failure 404 {string} string "Listing not found"
// @Router /marketplace/{listingId} [get]
func (h *MarketplaceHandler) get(w http.ResponseWriter, r *http.Request, userID, listingID string) {
	mc, err := h.marketplaceService.Get(r.Context(), userID, listingID)
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			http.Error(w, "Listing not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to retrieve listing: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(mc)
}

// unpublish godoc
// @Summary Remove an own listing from the marketplace
// @Tags marketplace
// @Param listingId path string true "Listing ID"
// @Success 204 {string} string "No content"
// @Router /marketplace/{listingId} [delete]
func (h *MarketplaceHandler) unpublish(w http.ResponseWriter, r *http.Request, userID, listingID string) {
	if err := h.marketplaceService.Unpublish(r.Context(), userID, listingID); err != nil {
		http.Error(w, "Failed to unpublish listing: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// toggleLike godoc
// @Summary Toggle a like on a listing
// @Tags marketplace
// @Produce json
// @Param listingId path string true "Listing ID"
// @Success 200 {object} dto.MarketplaceLikeResponseDTO
// @Router /marketplace/{listingId}/like [post]
func (h *MarketplaceHandler) toggleLike(w http.ResponseWriter, r *http.Request, userID, listingID string) {
	liked, count, err := h.marketplaceService.ToggleLike(r.Context(), userID, listingID)
	if err != nil {
		http.Error(w, "Failed to toggle like: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.MarketplaceLikeResponseDTO{Liked: liked, LikeCount: count})
}

// importListing godoc
// @Summary Copy a listing into the caller's library
// @Description The copy starts as a private solo course with progress cleared. Imports are not metered.
// @Tags marketplace
// @Produce json
// @Param listingId path string true "Listing ID"
// @Success 201 {object} model.Course
// @Failure 404 {string} string "Listing not found"
// @Router /marketplace/{listingId}/import [post]
func (h *MarketplaceHandler) importListing(w http.ResponseWriter, r *http.Request, userID, listingID string) {
	course, err := h.marketplaceService.Import(r.Context(), userID, listingID)
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			http.Error(w, "Listing not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to import listing: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(course)
}
