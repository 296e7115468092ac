package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"session-token-server/internal/model/requestresponse"
	"session-token-server/internal/ports"
	"session-token-server/internal/util"
)

type UserHandler struct {
	ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService}
}

// RegisterUser godoc
// @Summary Регистрация пользователя
// @Description Создаёт нового пользователя по логину и паролю
// @Tags Users
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} requestresponse.RegisterResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или слабый пароль"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/register [post]
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		util.HandleError(w, "login и password обязательны", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.Register(ctx, req.Login, req.Password)
	if err != nil {
		log.Println(err)
		switch {
		case strings.Contains(err.Error(), "логин должен"),
			strings.Contains(err.Error(), "пароль должен"):
			util.HandleError(w, err.Error(), http.StatusBadRequest)
		default:
			util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		}
		return
	}

	resp := requestresponse.RegisterResponse{}
	resp.Response.UserUUID = user.UUID

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}
