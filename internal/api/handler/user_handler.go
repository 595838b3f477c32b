package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/oguzhanozgokce/account-service/internal/api/metrics"
	"github.com/oguzhanozgokce/account-service/internal/core/domain"
	"github.com/oguzhanozgokce/account-service/internal/core/ports"
)

// imageField is the multipart form field carrying the profile image.
const imageField = "image"

type UserHandler struct {
	userService ports.UserService
	baseURL     string
}

func NewUserHandler(userService ports.UserService, baseURL string) *UserHandler {
	return &UserHandler{userService: userService, baseURL: baseURL}
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN user admin"`
}

// Profile returns the authenticated user's account.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=userResponse}
// @Failure      401  {object}  Response
// @Failure      404  {object}  Response
// @Router       /api/users/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	caller, err := callerPrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Profile(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User profile retrieved successfully", toUserResponse(user, h.baseURL))
}

// List returns a page of users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Zero-based page index"  default(0)
// @Param        size  query     int  false  "Page size (max 100)"    default(20)
// @Success      200   {object}  Response{data=userPageResponse}
// @Failure      400   {object}  Response
// @Failure      401   {object}  Response
// @Failure      403   {object}  Response
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, err := queryInt(c, "page", 0)
	if err != nil {
		return err
	}
	size, err := queryInt(c, "size", 0)
	if err != nil {
		return err
	}

	result, err := h.userService.List(c.Request().Context(), page, size)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Users retrieved successfully", toUserPageResponse(result, h.baseURL))
}

// Get returns a single user. Admins may read any account, users only their own.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  Response{data=userResponse}
// @Failure      401  {object}  Response
// @Failure      403  {object}  Response
// @Failure      404  {object}  Response
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	caller, err := callerPrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User retrieved successfully", toUserResponse(user, h.baseURL))
}

// Delete removes an account.
//
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  Response{data=string}
// @Failure      401  {object}  Response
// @Failure      403  {object}  Response
// @Failure      404  {object}  Response
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	caller, err := callerPrincipal(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	if err := h.userService.Delete(c.Request().Context(), caller, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User deleted successfully", "User with id "+id+" has been deleted")
}

// UpdateRole changes a user's role.
//
// @Summary      Change user role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateRoleRequest  true  "New role"
// @Success      200   {object}  Response{data=userResponse}
// @Failure      400   {object}  Response
// @Failure      401   {object}  Response
// @Failure      403   {object}  Response
// @Failure      404   {object}  Response
// @Router       /api/users/{id}/role [put]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	caller, err := callerPrincipal(c)
	if err != nil {
		return err
	}

	var req updateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.UpdateRole(c.Request().Context(), caller, c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User role updated successfully", toUserResponse(user, h.baseURL))
}

// UploadProfileImage replaces the caller's profile image.
//
// @Summary      Upload profile image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        image  formData  file  true  "JPEG, PNG or GIF, at most 20MB"
// @Success      200    {object}  Response{data=userResponse}
// @Failure      400    {object}  Response
// @Failure      401    {object}  Response
// @Router       /api/users/profile/image [post]
func (h *UserHandler) UploadProfileImage(c echo.Context) error {
	caller, err := callerPrincipal(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(imageField)
	if err != nil || fh.Size == 0 {
		metrics.ProfileImagesTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return &domain.FileError{Detail: "Please select a file to upload"}
	}

	f, err := fh.Open()
	if err != nil {
		metrics.ProfileImagesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return err
	}
	defer f.Close()

	user, err := h.userService.UpdateProfileImage(c.Request().Context(), caller, ports.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Content:     f,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidFile) {
			metrics.ProfileImagesTotal.WithLabelValues(metrics.ResultRejected).Inc()
		} else {
			metrics.ProfileImagesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		}
		return err
	}

	metrics.ProfileImagesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return respond(c, http.StatusOK, "Profile image updated successfully", toUserResponse(user, h.baseURL))
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name + " must be an integer")
	}
	return n, nil
}
