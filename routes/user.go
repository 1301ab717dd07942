package routes

import (
	"encoding/json"
	"errors"
	"strings"

	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (h *Handler) Register(ctx iris.Context) {
	var userInput RegisterUserInput
	if err := ctx.ReadJSON(&userInput); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var existing models.User
	err := h.DB.Where("email = ?", strings.ToLower(userInput.Email)).First(&existing).Error
	if err == nil {
		utils.CreateEmailAlreadyRegistered(ctx)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CreateInternalServerError(ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser := models.User{
		FirstName: userInput.FirstName,
		LastName:  userInput.LastName,
		Email:     strings.ToLower(userInput.Email),
		Password:  hashedPassword,
	}

	if err := h.DB.Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.CreateEmailAlreadyRegistered(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	h.returnUser(&newUser, iris.StatusCreated, ctx)
}

func (h *Handler) Login(ctx iris.Context) {
	var userInput LoginUserInput
	if err := ctx.ReadJSON(&userInput); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	errorMsg := "Invalid email or password."

	var existingUser models.User
	err := h.DB.Where("email = ?", strings.ToLower(userInput.Email)).First(&existingUser).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	h.returnUser(&existingUser, iris.StatusOK, ctx)
}

// RefreshToken rotates a refresh token. The refresh verifier middleware has
// already validated the signature; the Redis registry gates reuse.
func (h *Handler) RefreshToken(ctx iris.Context) {
	utils.RotateRefreshToken(ctx, h.DB, h.Redis)
}

// SearchUsers allows searching users by name or email (auth required).
func (h *Handler) SearchUsers(ctx iris.Context) {
	q := ctx.URLParamDefault("q", "")
	limit := ctx.URLParamIntDefault("limit", 20)
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if len(q) < 1 {
		ctx.JSON(iris.Map{"users": []interface{}{}})
		return
	}

	var users []models.User
	search := "%" + q + "%"
	h.DB.Limit(limit).
		Where("lower(first_name) LIKE lower(?) OR lower(last_name) LIKE lower(?) OR lower(email) LIKE lower(?)", search, search, search).
		Select("id, first_name, last_name, avatar_url").
		Find(&users)
	ctx.JSON(iris.Map{"users": users})
}

func (h *Handler) GetUser(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid user id.", ctx)
		return
	}

	var user models.User
	if err := h.DB.Preload("Company").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"user": &user})
}

func (h *Handler) UpdateUserProfile(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	var input UpdateProfileInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.AvatarURL != "" {
		user.AvatarURL = input.AvatarURL
	}
	if input.Bio != "" {
		user.Bio = input.Bio
	}
	if input.AllowsNotifications != nil {
		user.AllowsNotifications = input.AllowsNotifications
	}
	if len(input.Languages) > 0 {
		user.Languages = datatypes.JSON(input.Languages)
	}

	if err := h.DB.Save(&user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"user": &user})
}

func (h *Handler) returnUser(user *models.User, status int, ctx iris.Context) {
	tokenPair, tokenErr := utils.CreateTokenPair(h.DB, h.Redis, user.ID)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(status)
	ctx.JSON(iris.Map{
		"ID":           user.ID,
		"firstName":    user.FirstName,
		"lastName":     user.LastName,
		"email":        user.Email,
		"role":         user.Role,
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}

func hashAndSaltPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

type RegisterUserInput struct {
	FirstName string `json:"firstName" validate:"required,max=256"`
	LastName  string `json:"lastName" validate:"required,max=256"`
	Email     string `json:"email" validate:"required,max=256,email"`
	Password  string `json:"password" validate:"required,min=8,max=256"`
}

type LoginUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	FirstName           string          `json:"firstName"`
	LastName            string          `json:"lastName"`
	AvatarURL           string          `json:"avatarURL"`
	Bio                 string          `json:"bio"`
	AllowsNotifications *bool           `json:"allowsNotifications"`
	Languages           json.RawMessage `json:"languages"`
}
