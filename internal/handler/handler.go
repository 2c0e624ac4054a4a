// Package handler содержит HTTP-обработчики API сервиса бронирования.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nenoreno/jakes-bath-house/internal/middleware"
	"github.com/nenoreno/jakes-bath-house/internal/model"
	"github.com/nenoreno/jakes-bath-house/internal/payment"
	"github.com/nenoreno/jakes-bath-house/internal/rbac"
	"github.com/nenoreno/jakes-bath-house/internal/repository"
	"github.com/nenoreno/jakes-bath-house/internal/service"
	"github.com/nenoreno/jakes-bath-house/internal/ws"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Register(ctx context.Context, name, email, phone, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, name, phone string) (*model.User, error)

	GetPets(ctx context.Context, userID int64) ([]model.Pet, error)
	CreatePet(ctx context.Context, p model.Pet) (*model.Pet, error)
	UpdatePet(ctx context.Context, userID int64, p model.Pet) (*model.Pet, error)
	DeletePet(ctx context.Context, userID, petID int64) error

	GetServices(ctx context.Context) ([]model.Service, error)

	CreateAppointment(ctx context.Context, a model.Appointment) (*model.Appointment, error)
	GetAppointments(ctx context.Context, userID int64) ([]model.Appointment, error)
	GetAppointmentsFiltered(ctx context.Context, status, date string) ([]model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, to model.AppointmentStatus) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, userID, id int64) (*model.Appointment, error)

	GetStats(ctx context.Context, date string) (*model.Stats, error)
	GetCustomers(ctx context.Context) ([]model.CustomerSummary, error)
	DeactivateCustomer(ctx context.Context, userID int64) error

	GetRoles(ctx context.Context) ([]model.Role, error)
	GetRolePermissions(ctx context.Context, roleName string) ([]string, error)
	CreateRole(ctx context.Context, role model.Role) (*model.Role, error)
	UpdateRolePermissions(ctx context.Context, roleID int64, permissions []string) (*model.Role, error)
	DeleteRole(ctx context.Context, roleID int64) error
	Permissions() []rbac.Permission

	GetStaff(ctx context.Context) ([]model.StaffMember, error)
	CreateStaffMember(ctx context.Context, m model.StaffMember, password string) (int64, error)
	UpdateStaffMember(ctx context.Context, m model.StaffMember) error

	GetSettings(ctx context.Context, category string) ([]model.Setting, error)
	GetSettingCategories(ctx context.Context) ([]string, error)
	UpdateSetting(ctx context.Context, category, key, value string, updatedBy int64) error

	CreatePaymentIntent(ctx context.Context, userID, serviceID int64, paymentType model.PaymentType) (*payment.Intent, error)
	ConfirmPayment(ctx context.Context, a model.Appointment, providerPaymentID string) (*model.Appointment, error)
	GetPaymentStatus(ctx context.Context, providerPaymentID string) (*model.Payment, error)

	AddPhoto(ctx context.Context, userID int64, p model.PetPhoto) (int64, error)
	GetPhotos(ctx context.Context, userID, petID int64, photoType string) ([]model.PetPhoto, error)
	DeletePhoto(ctx context.Context, userID, photoID int64) (string, error)
	ToggleLike(ctx context.Context, photoID, userID int64) (string, int, error)
	AddComment(ctx context.Context, c model.PhotoComment) (int64, error)
	GetComments(ctx context.Context, photoID int64) ([]model.PhotoComment, error)
}

// Handler реализует HTTP-обработчики API сервиса бронирования.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	hub            *ws.Hub
	uploadsDir     string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, hub *ws.Hub, uploadsDir string) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		hub:            hub,
		uploadsDir:     uploadsDir,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

// respondError переводит ошибки бизнес-логики в HTTP-статусы.
func (h *Handler) respondError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountInactive):
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	case errors.Is(err, service.ErrNotOwner):
		http.Error(w, "access denied", http.StatusForbidden)
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrPetNotFound),
		errors.Is(err, repository.ErrServiceNotFound),
		errors.Is(err, repository.ErrAppointmentNotFound),
		errors.Is(err, repository.ErrRoleNotFound),
		errors.Is(err, repository.ErrPaymentNotFound),
		errors.Is(err, repository.ErrSettingNotFound),
		errors.Is(err, repository.ErrPhotoNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrRoleExists),
		errors.Is(err, repository.ErrInvalidTransition),
		errors.Is(err, service.ErrPaymentAlreadyUsed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrUnknownStatus),
		errors.Is(err, service.ErrUnknownPermission),
		errors.Is(err, service.ErrSuperAdminImmutable),
		errors.Is(err, service.ErrCoreRoleProtected),
		errors.Is(err, service.ErrRoleInUse):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrPaymentNotSucceeded):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	default:
		h.logger.Error(msg, zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type userResponse struct {
	*model.User
	VisitsUntilReward int `json:"visits_until_reward"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		User:              u,
		VisitsUntilReward: model.VisitsUntilReward(u.WashCount),
	}
}

// Register обрабатывает регистрацию нового клиента.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	u, err := h.service.Register(r.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		h.respondError(w, err, "register user error")
		return
	}

	h.authMiddleware.SetAuthCookie(w, u.ID, u.Role)
	h.writeJSON(w, http.StatusCreated, newUserResponse(u))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login выполняет аутентификацию пользователя и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	u, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err, "login error")
		return
	}

	h.authMiddleware.SetAuthCookie(w, u.ID, u.Role)
	h.writeJSON(w, http.StatusOK, newUserResponse(u))
}

// GetUser возвращает учётную запись текущего пользователя.
// Чужие учётные записи недоступны.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.sessionAndOwnID(w, r)
	if !ok {
		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get user error")
		return
	}

	h.writeJSON(w, http.StatusOK, newUserResponse(u))
}

type profileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateProfile обновляет имя и телефон текущего пользователя.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.sessionAndOwnID(w, r)
	if !ok {
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), id, req.Name, req.Phone)
	if err != nil {
		h.respondError(w, err, "update profile error")
		return
	}

	h.writeJSON(w, http.StatusOK, newUserResponse(u))
}

// sessionAndOwnID достаёт сессию и {id} из пути и требует их совпадения.
func (h *Handler) sessionAndOwnID(w http.ResponseWriter, r *http.Request) (middleware.Session, int64, bool) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return middleware.Session{}, 0, false
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return middleware.Session{}, 0, false
	}

	if id != session.UserID {
		http.Error(w, "access denied", http.StatusForbidden)
		return middleware.Session{}, 0, false
	}

	return session, id, true
}

// GetServices возвращает каталог услуг.
func (h *Handler) GetServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.GetServices(r.Context())
	if err != nil {
		h.respondError(w, err, "get services error")
		return
	}

	h.writeJSON(w, http.StatusOK, services)
}

// GetPets возвращает питомцев текущего пользователя.
func (h *Handler) GetPets(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.sessionAndOwnID(w, r)
	if !ok {
		return
	}

	pets, err := h.service.GetPets(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get pets error")
		return
	}

	if pets == nil {
		pets = []model.Pet{}
	}
	h.writeJSON(w, http.StatusOK, pets)
}

type petRequest struct {
	Name  string `json:"name"`
	Breed string `json:"breed"`
	Size  string `json:"size"`
	Notes string `json:"notes"`
}

// CreatePet добавляет питомца текущему пользователю.
func (h *Handler) CreatePet(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req petRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	pet, err := h.service.CreatePet(r.Context(), model.Pet{
		UserID: session.UserID,
		Name:   req.Name,
		Breed:  req.Breed,
		Size:   req.Size,
		Notes:  req.Notes,
	})
	if err != nil {
		h.respondError(w, err, "create pet error")
		return
	}

	h.writeJSON(w, http.StatusCreated, pet)
}

// UpdatePet обновляет питомца текущего пользователя.
func (h *Handler) UpdatePet(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req petRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	pet, err := h.service.UpdatePet(r.Context(), session.UserID, model.Pet{
		ID:    id,
		Name:  req.Name,
		Breed: req.Breed,
		Size:  req.Size,
		Notes: req.Notes,
	})
	if err != nil {
		h.respondError(w, err, "update pet error")
		return
	}

	h.writeJSON(w, http.StatusOK, pet)
}

// DeletePet удаляет питомца текущего пользователя.
func (h *Handler) DeletePet(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeletePet(r.Context(), session.UserID, id); err != nil {
		h.respondError(w, err, "delete pet error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type appointmentRequest struct {
	PetID     int64  `json:"pet_id"`
	ServiceID int64  `json:"service_id"`
	Date      string `json:"appointment_date"`
	Time      string `json:"appointment_time"`
	Notes     string `json:"notes"`
}

// CreateAppointment создаёт запись текущего пользователя на услугу.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.PetID == 0 || req.ServiceID == 0 || req.Date == "" || req.Time == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	a, err := h.service.CreateAppointment(r.Context(), model.Appointment{
		UserID:    session.UserID,
		PetID:     req.PetID,
		ServiceID: req.ServiceID,
		Date:      req.Date,
		Time:      req.Time,
		Notes:     req.Notes,
	})
	if err != nil {
		h.respondError(w, err, "create appointment error")
		return
	}

	h.writeJSON(w, http.StatusCreated, a)
}

// GetAppointments возвращает записи текущего пользователя.
func (h *Handler) GetAppointments(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.sessionAndOwnID(w, r)
	if !ok {
		return
	}

	appointments, err := h.service.GetAppointments(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get appointments error")
		return
	}

	if appointments == nil {
		appointments = []model.Appointment{}
	}
	h.writeJSON(w, http.StatusOK, appointments)
}

type statusRequest struct {
	Status model.AppointmentStatus `json:"status"`
}

// roleAllowed повторяет проверку middleware.RequirePermission для обработчиков,
// где решение зависит от роли и тела запроса одновременно.
func (h *Handler) roleAllowed(ctx context.Context, role, permission string) bool {
	var granted []string
	if role != rbac.RoleSuperAdmin {
		perms, err := h.service.GetRolePermissions(ctx, role)
		if err != nil {
			return false
		}
		granted = perms
	}
	return rbac.HasPermission(role, granted, permission)
}

// UpdateAppointmentStatus переводит запись в новый статус.
// Клиент может только отменить собственную запись, остальные переходы
// требуют разрешения на управление записями.
func (h *Handler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if session.Role == rbac.RoleCustomer {
		if req.Status != model.AppointmentStatusCancelled {
			http.Error(w, "access denied", http.StatusForbidden)
			return
		}

		a, err := h.service.CancelAppointment(r.Context(), session.UserID, id)
		if err != nil {
			h.respondError(w, err, "cancel appointment error")
			return
		}
		h.writeJSON(w, http.StatusOK, a)
		return
	}

	if !h.roleAllowed(r.Context(), session.Role, rbac.PermAppointmentManagement) {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	a, err := h.service.UpdateAppointmentStatus(r.Context(), id, req.Status)
	if err != nil {
		h.respondError(w, err, "update appointment status error")
		return
	}

	h.writeJSON(w, http.StatusOK, a)
}

// ServeWS апгрейдит соединение до WebSocket для живых обновлений.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	h.hub.ServeWS(w, r, session.UserID)
}

// Health проверяет работоспособность сервиса.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
