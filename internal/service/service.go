// Package service реализует бизнес-логику сервиса бронирования.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nenoreno/jakes-bath-house/internal/lifecycle"
	"github.com/nenoreno/jakes-bath-house/internal/model"
	"github.com/nenoreno/jakes-bath-house/internal/payment"
	"github.com/nenoreno/jakes-bath-house/internal/rbac"
	"github.com/nenoreno/jakes-bath-house/internal/repository"
	"github.com/nenoreno/jakes-bath-house/internal/ws"
)

// Ошибки бизнес-логики.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrNotOwner            = errors.New("resource does not belong to user")
	ErrUnknownStatus       = errors.New("unknown appointment status")
	ErrUnknownPermission   = errors.New("unknown permission")
	ErrSuperAdminImmutable = errors.New("super_admin permissions cannot be changed")
	ErrCoreRoleProtected   = errors.New("core role cannot be deleted")
	ErrRoleInUse           = errors.New("role is assigned to users")
	ErrPaymentNotSucceeded = errors.New("payment has not succeeded")
	ErrPaymentAlreadyUsed  = errors.New("payment is already used for an appointment")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u model.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
	UpdateUser(ctx context.Context, u model.User) error
	DeactivateUser(ctx context.Context, userID int64) error
	CountUsersByRole(ctx context.Context, role string) (int, error)
	GetCustomers(ctx context.Context) ([]model.CustomerSummary, error)

	CreatePet(ctx context.Context, p model.Pet) (int64, error)
	GetPetByID(ctx context.Context, id int64) (*model.Pet, error)
	GetPetsByUser(ctx context.Context, userID int64) ([]model.Pet, error)
	UpdatePet(ctx context.Context, p model.Pet) error
	DeletePet(ctx context.Context, id int64) error

	GetServices(ctx context.Context) ([]model.Service, error)
	GetServiceByID(ctx context.Context, id int64) (*model.Service, error)

	CreateAppointment(ctx context.Context, a model.Appointment) (int64, error)
	GetAppointmentByID(ctx context.Context, id int64) (*model.Appointment, error)
	GetAppointmentsByUser(ctx context.Context, userID int64) ([]model.Appointment, error)
	GetAppointmentsFiltered(ctx context.Context, status, date string) ([]model.Appointment, error)
	TransitionAppointmentStatus(ctx context.Context, id int64, to model.AppointmentStatus) error
	AttachPayment(ctx context.Context, appointmentID, paymentID int64) error
	GetStats(ctx context.Context, date string) (*model.Stats, error)

	GetRoles(ctx context.Context) ([]model.Role, error)
	GetRoleByID(ctx context.Context, id int64) (*model.Role, error)
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	CreateRole(ctx context.Context, role model.Role) (int64, error)
	UpdateRolePermissions(ctx context.Context, roleID int64, permissions []string) error
	DeleteRole(ctx context.Context, roleID int64) error

	GetStaff(ctx context.Context) ([]model.StaffMember, error)
	CreateStaffMember(ctx context.Context, m model.StaffMember) (int64, error)
	UpdateStaffMember(ctx context.Context, m model.StaffMember) error

	GetSettings(ctx context.Context, category string) ([]model.Setting, error)
	GetSettingCategories(ctx context.Context) ([]string, error)
	UpdateSetting(ctx context.Context, category, key, value string, updatedBy int64) error

	CreatePayment(ctx context.Context, p model.Payment) (int64, error)
	GetPaymentByProviderID(ctx context.Context, providerID string) (*model.Payment, error)
	UpdatePaymentStatus(ctx context.Context, providerID, status string) error

	CreatePhoto(ctx context.Context, p model.PetPhoto) (int64, error)
	GetPhotosByUser(ctx context.Context, userID int64, petID int64, photoType string) ([]model.PetPhoto, error)
	GetPhotoOwner(ctx context.Context, photoID int64) (*model.PetPhoto, int64, error)
	DeletePhoto(ctx context.Context, photoID int64) error
	ToggleLike(ctx context.Context, photoID, userID int64) (string, int, error)
	CreateComment(ctx context.Context, c model.PhotoComment) (int64, error)
	GetComments(ctx context.Context, photoID int64) ([]model.PhotoComment, error)
}

// Broadcaster рассылает уведомления об изменениях записей подключённым клиентам.
type Broadcaster interface {
	BroadcastAppointmentUpdate(action string, appointment *model.Appointment)
}

// PaymentProvider описывает контракт платёжного провайдера.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount float64, currency string) (*payment.Intent, error)
	GetIntent(ctx context.Context, id string) (*payment.Intent, error)
}

// Service содержит бизнес-логику сервиса бронирования.
type Service struct {
	repo     Repository
	payments PaymentProvider
	hub      Broadcaster
}

// NewService создаёт новый сервис.
func NewService(repo Repository, payments PaymentProvider, hub Broadcaster) *Service {
	return &Service{
		repo:     repo,
		payments: payments,
		hub:      hub,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Register регистрирует нового клиента и возвращает его учётную запись.
func (s *Service) Register(ctx context.Context, name, email, phone, password string) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.CreateUser(ctx, model.User{
		Name:     name,
		Email:    email,
		Phone:    phone,
		Password: hashed,
		Role:     rbac.RoleCustomer,
		Status:   model.UserStatusActive,
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetUserByID(ctx, id)
}

// Login проверяет учётные данные и возвращает пользователя.
// Деактивированные учётные записи не допускаются независимо от пароля.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.Password, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if u.Status != model.UserStatusActive {
		return nil, ErrAccountInactive
	}

	if err := s.repo.TouchLastLogin(ctx, u.ID, time.Now()); err != nil {
		return nil, err
	}

	return u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// UpdateProfile обновляет имя и телефон пользователя.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, name, phone string) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.Name = name
	u.Phone = phone
	if err := s.repo.UpdateUser(ctx, *u); err != nil {
		return nil, err
	}

	return s.repo.GetUserByID(ctx, userID)
}

// GetPets возвращает питомцев пользователя.
func (s *Service) GetPets(ctx context.Context, userID int64) ([]model.Pet, error) {
	return s.repo.GetPetsByUser(ctx, userID)
}

// CreatePet добавляет питомца пользователю.
func (s *Service) CreatePet(ctx context.Context, p model.Pet) (*model.Pet, error) {
	id, err := s.repo.CreatePet(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.repo.GetPetByID(ctx, id)
}

// UpdatePet обновляет питомца. Редактировать можно только своих питомцев.
func (s *Service) UpdatePet(ctx context.Context, userID int64, p model.Pet) (*model.Pet, error) {
	existing, err := s.repo.GetPetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrNotOwner
	}

	p.UserID = userID
	if err := s.repo.UpdatePet(ctx, p); err != nil {
		return nil, err
	}

	return s.repo.GetPetByID(ctx, p.ID)
}

// DeletePet удаляет питомца пользователя.
func (s *Service) DeletePet(ctx context.Context, userID, petID int64) error {
	existing, err := s.repo.GetPetByID(ctx, petID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return ErrNotOwner
	}

	return s.repo.DeletePet(ctx, petID)
}

// GetServices возвращает каталог услуг.
func (s *Service) GetServices(ctx context.Context) ([]model.Service, error) {
	return s.repo.GetServices(ctx)
}

// CreateAppointment создаёт запись на услугу. Питомец должен принадлежать
// пользователю записи. Новая запись всегда начинает жизненный цикл со
// статуса confirmed, после создания рассылается уведомление.
func (s *Service) CreateAppointment(ctx context.Context, a model.Appointment) (*model.Appointment, error) {
	pet, err := s.repo.GetPetByID(ctx, a.PetID)
	if err != nil {
		return nil, err
	}
	if pet.UserID != a.UserID {
		return nil, ErrNotOwner
	}

	if _, err := s.repo.GetServiceByID(ctx, a.ServiceID); err != nil {
		return nil, err
	}

	id, err := s.repo.CreateAppointment(ctx, a)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastAppointmentUpdate(ws.ActionCreated, created)
	}

	return created, nil
}

// GetAppointments возвращает записи пользователя.
func (s *Service) GetAppointments(ctx context.Context, userID int64) ([]model.Appointment, error) {
	return s.repo.GetAppointmentsByUser(ctx, userID)
}

// GetAppointmentsFiltered возвращает записи всех клиентов с необязательными
// фильтрами по статусу и дате.
func (s *Service) GetAppointmentsFiltered(ctx context.Context, status, date string) ([]model.Appointment, error) {
	return s.repo.GetAppointmentsFiltered(ctx, status, date)
}

// UpdateAppointmentStatus переводит запись в новый статус. Легальность
// перехода проверяется по таблице жизненного цикла, повторный перевод в тот
// же статус допустим и ничего не меняет. Об успешном переходе рассылается
// уведомление.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id int64, to model.AppointmentStatus) (*model.Appointment, error) {
	if !lifecycle.IsValidStatus(to) {
		return nil, ErrUnknownStatus
	}

	if err := s.repo.TransitionAppointmentStatus(ctx, id, to); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastAppointmentUpdate(ws.ActionStatusUpdated, updated)
	}

	return updated, nil
}

// CancelAppointment отменяет запись по инициативе клиента.
// Отменить можно только собственную запись.
func (s *Service) CancelAppointment(ctx context.Context, userID, id int64) (*model.Appointment, error) {
	a, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, ErrNotOwner
	}

	return s.UpdateAppointmentStatus(ctx, id, model.AppointmentStatusCancelled)
}

// GetStats возвращает агрегированные показатели за указанную дату.
func (s *Service) GetStats(ctx context.Context, date string) (*model.Stats, error) {
	return s.repo.GetStats(ctx, date)
}

// GetCustomers возвращает клиентов со счётчиками питомцев и записей.
func (s *Service) GetCustomers(ctx context.Context) ([]model.CustomerSummary, error) {
	return s.repo.GetCustomers(ctx)
}

// DeactivateCustomer деактивирует учётную запись клиента.
func (s *Service) DeactivateCustomer(ctx context.Context, userID int64) error {
	return s.repo.DeactivateUser(ctx, userID)
}

// GetRoles возвращает все роли.
func (s *Service) GetRoles(ctx context.Context) ([]model.Role, error) {
	return s.repo.GetRoles(ctx)
}

// GetRolePermissions возвращает набор разрешений роли по её имени.
func (s *Service) GetRolePermissions(ctx context.Context, roleName string) ([]string, error) {
	role, err := s.repo.GetRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return role.Permissions, nil
}

// CreateRole создаёт новую роль. Все разрешения должны входить в известный каталог.
func (s *Service) CreateRole(ctx context.Context, role model.Role) (*model.Role, error) {
	if err := validatePermissions(role.Permissions); err != nil {
		return nil, err
	}

	id, err := s.repo.CreateRole(ctx, role)
	if err != nil {
		return nil, err
	}

	return s.repo.GetRoleByID(ctx, id)
}

// UpdateRolePermissions замещает набор разрешений роли.
// Набор разрешений super_admin неизменяем.
func (s *Service) UpdateRolePermissions(ctx context.Context, roleID int64, permissions []string) (*model.Role, error) {
	role, err := s.repo.GetRoleByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role.Name == rbac.RoleSuperAdmin {
		return nil, ErrSuperAdminImmutable
	}

	if err := validatePermissions(permissions); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRolePermissions(ctx, roleID, permissions); err != nil {
		return nil, err
	}

	return s.repo.GetRoleByID(ctx, roleID)
}

// DeleteRole удаляет роль. Базовые роли и роли, назначенные пользователям,
// удалить нельзя.
func (s *Service) DeleteRole(ctx context.Context, roleID int64) error {
	role, err := s.repo.GetRoleByID(ctx, roleID)
	if err != nil {
		return err
	}
	if rbac.IsCoreRole(role.Name) {
		return ErrCoreRoleProtected
	}

	count, err := s.repo.CountUsersByRole(ctx, role.Name)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRoleInUse
	}

	return s.repo.DeleteRole(ctx, roleID)
}

// Permissions возвращает каталог известных разрешений.
func (s *Service) Permissions() []rbac.Permission {
	return rbac.Catalog()
}

func validatePermissions(permissions []string) error {
	for _, p := range permissions {
		if !rbac.IsKnownPermission(p) {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, p)
		}
	}
	return nil
}

// GetStaff возвращает список сотрудников.
func (s *Service) GetStaff(ctx context.Context) ([]model.StaffMember, error) {
	return s.repo.GetStaff(ctx)
}

// CreateStaffMember создаёт учётную запись сотрудника и запись о нём.
func (s *Service) CreateStaffMember(ctx context.Context, m model.StaffMember, password string) (int64, error) {
	if _, err := s.repo.GetRoleByName(ctx, m.Role); err != nil {
		return 0, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.repo.CreateUser(ctx, model.User{
		Name:     m.Name,
		Email:    m.Email,
		Phone:    m.Phone,
		Password: hashed,
		Role:     m.Role,
		Status:   model.UserStatusActive,
	})
	if err != nil {
		return 0, err
	}

	m.UserID = userID
	return s.repo.CreateStaffMember(ctx, m)
}

// UpdateStaffMember обновляет запись о сотруднике.
func (s *Service) UpdateStaffMember(ctx context.Context, m model.StaffMember) error {
	if m.Role != "" {
		if _, err := s.repo.GetRoleByName(ctx, m.Role); err != nil {
			return err
		}
	}
	return s.repo.UpdateStaffMember(ctx, m)
}

// GetSettings возвращает настройки бизнеса, при необходимости по одной категории.
func (s *Service) GetSettings(ctx context.Context, category string) ([]model.Setting, error) {
	return s.repo.GetSettings(ctx, category)
}

// GetSettingCategories возвращает список категорий настроек.
func (s *Service) GetSettingCategories(ctx context.Context) ([]string, error) {
	return s.repo.GetSettingCategories(ctx)
}

// UpdateSetting обновляет значение настройки.
func (s *Service) UpdateSetting(ctx context.Context, category, key, value string, updatedBy int64) error {
	return s.repo.UpdateSetting(ctx, category, key, value, updatedBy)
}

// PaymentAmount вычисляет сумму к оплате за услугу. Для депозита берётся
// процент от цены услуги, если услуга этого требует, иначе полная цена.
func PaymentAmount(svc *model.Service, paymentType model.PaymentType) float64 {
	if paymentType == model.PaymentTypeDeposit && svc.RequiresDeposit {
		return svc.Price * float64(svc.DepositPercentage) / 100
	}
	return svc.Price
}

// CreatePaymentIntent регистрирует платёж у провайдера и сохраняет его локально.
func (s *Service) CreatePaymentIntent(ctx context.Context, userID, serviceID int64, paymentType model.PaymentType) (*payment.Intent, error) {
	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	amount := PaymentAmount(svc, paymentType)

	intent, err := s.payments.CreateIntent(ctx, amount, "usd")
	if err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}

	_, err = s.repo.CreatePayment(ctx, model.Payment{
		UserID:            userID,
		ProviderPaymentID: intent.ID,
		Amount:            amount,
		Currency:          "usd",
		Status:            "pending",
		Type:              paymentType,
	})
	if err != nil {
		return nil, err
	}

	return intent, nil
}

// GetPaymentStatus возвращает локальное состояние платежа по идентификатору провайдера.
func (s *Service) GetPaymentStatus(ctx context.Context, providerPaymentID string) (*model.Payment, error) {
	return s.repo.GetPaymentByProviderID(ctx, providerPaymentID)
}

// ConfirmPayment проверяет у провайдера успешность платежа, создаёт запись
// и привязывает к ней платёж. Платёж и питомец должны принадлежать пользователю,
// повторное подтверждение уже использованного платежа отклоняется.
func (s *Service) ConfirmPayment(ctx context.Context, a model.Appointment, providerPaymentID string) (*model.Appointment, error) {
	p, err := s.repo.GetPaymentByProviderID(ctx, providerPaymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != a.UserID {
		return nil, ErrNotOwner
	}
	if p.AppointmentID != nil || p.Status == "succeeded" {
		return nil, ErrPaymentAlreadyUsed
	}

	pet, err := s.repo.GetPetByID(ctx, a.PetID)
	if err != nil {
		return nil, err
	}
	if pet.UserID != a.UserID {
		return nil, ErrNotOwner
	}

	intent, err := s.payments.GetIntent(ctx, providerPaymentID)
	if err != nil {
		return nil, fmt.Errorf("get intent: %w", err)
	}
	if intent.Status != "succeeded" {
		return nil, ErrPaymentNotSucceeded
	}

	if err := s.repo.UpdatePaymentStatus(ctx, providerPaymentID, "succeeded"); err != nil {
		return nil, err
	}

	id, err := s.repo.CreateAppointment(ctx, a)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AttachPayment(ctx, id, p.ID); err != nil {
		return nil, err
	}

	created, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastAppointmentUpdate(ws.ActionCreated, created)
	}

	return created, nil
}

// AddPhoto сохраняет метаданные фотографии питомца.
// Питомец должен принадлежать пользователю.
func (s *Service) AddPhoto(ctx context.Context, userID int64, p model.PetPhoto) (int64, error) {
	pet, err := s.repo.GetPetByID(ctx, p.PetID)
	if err != nil {
		return 0, err
	}
	if pet.UserID != userID {
		return 0, ErrNotOwner
	}

	return s.repo.CreatePhoto(ctx, p)
}

// GetPhotos возвращает фотографии питомцев пользователя с необязательными фильтрами.
func (s *Service) GetPhotos(ctx context.Context, userID, petID int64, photoType string) ([]model.PetPhoto, error) {
	return s.repo.GetPhotosByUser(ctx, userID, petID, photoType)
}

// DeletePhoto удаляет фотографию владельца и возвращает её URL,
// чтобы вызывающая сторона могла удалить файл.
func (s *Service) DeletePhoto(ctx context.Context, userID, photoID int64) (string, error) {
	p, ownerID, err := s.repo.GetPhotoOwner(ctx, photoID)
	if err != nil {
		return "", err
	}
	if ownerID != userID {
		return "", ErrNotOwner
	}

	if err := s.repo.DeletePhoto(ctx, photoID); err != nil {
		return "", err
	}

	return p.PhotoURL, nil
}

// ToggleLike ставит или снимает лайк и возвращает действие и итоговое число лайков.
func (s *Service) ToggleLike(ctx context.Context, photoID, userID int64) (string, int, error) {
	return s.repo.ToggleLike(ctx, photoID, userID)
}

// AddComment добавляет комментарий к фотографии.
func (s *Service) AddComment(ctx context.Context, c model.PhotoComment) (int64, error) {
	return s.repo.CreateComment(ctx, c)
}

// GetComments возвращает комментарии к фотографии.
func (s *Service) GetComments(ctx context.Context, photoID int64) ([]model.PhotoComment, error) {
	return s.repo.GetComments(ctx, photoID)
}
