package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nenoreno/jakes-bath-house/internal/model"
	"github.com/nenoreno/jakes-bath-house/internal/payment"
	"github.com/nenoreno/jakes-bath-house/internal/rbac"
	"github.com/nenoreno/jakes-bath-house/internal/repository"
	"github.com/nenoreno/jakes-bath-house/internal/ws"
)

type stubRepo struct {
	createUserID  int64
	createUserErr error

	userByEmail    *model.User
	userByEmailErr error
	userByID       *model.User
	userByIDErr    error

	pet    *model.Pet
	petErr error

	service    *model.Service
	serviceErr error

	createAppointmentID     int64
	createAppointmentErr    error
	createAppointmentCalled bool
	appointment             *model.Appointment
	appointmentErr          error
	transitionErr           error
	transitionedTo          model.AppointmentStatus

	role               *model.Role
	roleErr            error
	usersWithRole      int
	deleteRoleCalled   bool
	updatedPermissions []string

	payment          *model.Payment
	paymentStatusSet string

	photo        *model.PetPhoto
	photoOwnerID int64
	photoErr     error
	photoDeleted bool
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateUser(ctx context.Context, u model.User) (int64, error) {
	return s.createUserID, s.createUserErr
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userByEmail, s.userByEmailErr
}

func (s *stubRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userByID, s.userByIDErr
}

func (s *stubRepo) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return nil
}

func (s *stubRepo) UpdateUser(ctx context.Context, u model.User) error { return nil }

func (s *stubRepo) DeactivateUser(ctx context.Context, userID int64) error { return nil }

func (s *stubRepo) CountUsersByRole(ctx context.Context, role string) (int, error) {
	return s.usersWithRole, nil
}

func (s *stubRepo) GetCustomers(ctx context.Context) ([]model.CustomerSummary, error) {
	return nil, nil
}

func (s *stubRepo) CreatePet(ctx context.Context, p model.Pet) (int64, error) { return 1, nil }

func (s *stubRepo) GetPetByID(ctx context.Context, id int64) (*model.Pet, error) {
	return s.pet, s.petErr
}

func (s *stubRepo) GetPetsByUser(ctx context.Context, userID int64) ([]model.Pet, error) {
	return nil, nil
}

func (s *stubRepo) UpdatePet(ctx context.Context, p model.Pet) error { return nil }

func (s *stubRepo) DeletePet(ctx context.Context, id int64) error { return nil }

func (s *stubRepo) GetServices(ctx context.Context) ([]model.Service, error) { return nil, nil }

func (s *stubRepo) GetServiceByID(ctx context.Context, id int64) (*model.Service, error) {
	return s.service, s.serviceErr
}

func (s *stubRepo) CreateAppointment(ctx context.Context, a model.Appointment) (int64, error) {
	s.createAppointmentCalled = true
	return s.createAppointmentID, s.createAppointmentErr
}

func (s *stubRepo) GetAppointmentByID(ctx context.Context, id int64) (*model.Appointment, error) {
	return s.appointment, s.appointmentErr
}

func (s *stubRepo) GetAppointmentsByUser(ctx context.Context, userID int64) ([]model.Appointment, error) {
	return nil, nil
}

func (s *stubRepo) GetAppointmentsFiltered(ctx context.Context, status, date string) ([]model.Appointment, error) {
	return nil, nil
}

func (s *stubRepo) TransitionAppointmentStatus(ctx context.Context, id int64, to model.AppointmentStatus) error {
	s.transitionedTo = to
	return s.transitionErr
}

func (s *stubRepo) AttachPayment(ctx context.Context, appointmentID, paymentID int64) error {
	return nil
}

func (s *stubRepo) GetStats(ctx context.Context, date string) (*model.Stats, error) {
	return nil, nil
}

func (s *stubRepo) GetRoles(ctx context.Context) ([]model.Role, error) { return nil, nil }

func (s *stubRepo) GetRoleByID(ctx context.Context, id int64) (*model.Role, error) {
	return s.role, s.roleErr
}

func (s *stubRepo) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	return s.role, s.roleErr
}

func (s *stubRepo) CreateRole(ctx context.Context, role model.Role) (int64, error) { return 1, nil }

func (s *stubRepo) UpdateRolePermissions(ctx context.Context, roleID int64, permissions []string) error {
	s.updatedPermissions = permissions
	return nil
}

func (s *stubRepo) DeleteRole(ctx context.Context, roleID int64) error {
	s.deleteRoleCalled = true
	return nil
}

func (s *stubRepo) GetStaff(ctx context.Context) ([]model.StaffMember, error) { return nil, nil }

func (s *stubRepo) CreateStaffMember(ctx context.Context, m model.StaffMember) (int64, error) {
	return 1, nil
}

func (s *stubRepo) UpdateStaffMember(ctx context.Context, m model.StaffMember) error { return nil }

func (s *stubRepo) GetSettings(ctx context.Context, category string) ([]model.Setting, error) {
	return nil, nil
}

func (s *stubRepo) GetSettingCategories(ctx context.Context) ([]string, error) { return nil, nil }

func (s *stubRepo) UpdateSetting(ctx context.Context, category, key, value string, updatedBy int64) error {
	return nil
}

func (s *stubRepo) CreatePayment(ctx context.Context, p model.Payment) (int64, error) { return 1, nil }

func (s *stubRepo) GetPaymentByProviderID(ctx context.Context, providerID string) (*model.Payment, error) {
	if s.payment == nil {
		return nil, repository.ErrPaymentNotFound
	}
	return s.payment, nil
}

func (s *stubRepo) UpdatePaymentStatus(ctx context.Context, providerID, status string) error {
	s.paymentStatusSet = status
	return nil
}

func (s *stubRepo) CreatePhoto(ctx context.Context, p model.PetPhoto) (int64, error) { return 1, nil }

func (s *stubRepo) GetPhotosByUser(ctx context.Context, userID int64, petID int64, photoType string) ([]model.PetPhoto, error) {
	return nil, nil
}

func (s *stubRepo) GetPhotoOwner(ctx context.Context, photoID int64) (*model.PetPhoto, int64, error) {
	return s.photo, s.photoOwnerID, s.photoErr
}

func (s *stubRepo) DeletePhoto(ctx context.Context, photoID int64) error {
	s.photoDeleted = true
	return nil
}

func (s *stubRepo) ToggleLike(ctx context.Context, photoID, userID int64) (string, int, error) {
	return "liked", 1, nil
}

func (s *stubRepo) CreateComment(ctx context.Context, c model.PhotoComment) (int64, error) {
	return 1, nil
}

func (s *stubRepo) GetComments(ctx context.Context, photoID int64) ([]model.PhotoComment, error) {
	return nil, nil
}

type stubBroadcaster struct {
	actions []string
}

func (b *stubBroadcaster) BroadcastAppointmentUpdate(action string, appointment *model.Appointment) {
	b.actions = append(b.actions, action)
}

type stubProvider struct {
	intent    *payment.Intent
	intentErr error

	createdAmount float64
}

func (p *stubProvider) CreateIntent(ctx context.Context, amount float64, currency string) (*payment.Intent, error) {
	p.createdAmount = amount
	return p.intent, p.intentErr
}

func (p *stubProvider) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	return p.intent, p.intentErr
}

func mustHash(t *testing.T, password string) []byte {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return hashed
}

func TestRegister_PropagatesDuplicateError(t *testing.T) {
	repo := &stubRepo{createUserErr: repository.ErrUserExists}
	svc := NewService(repo, nil, nil)

	_, err := svc.Register(context.Background(), "Jake", "jake@example.com", "555", "secret")
	if !errors.Is(err, repository.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := &stubRepo{
		userByEmail: &model.User{
			ID:       1,
			Email:    "jake@example.com",
			Password: mustHash(t, "correct"),
			Status:   model.UserStatusActive,
		},
	}
	svc := NewService(repo, nil, nil)

	_, err := svc.Login(context.Background(), "jake@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	repo := &stubRepo{
		userByEmail: &model.User{
			ID:       1,
			Email:    "jake@example.com",
			Password: mustHash(t, "correct"),
			Status:   model.UserStatusInactive,
		},
	}
	svc := NewService(repo, nil, nil)

	_, err := svc.Login(context.Background(), "jake@example.com", "correct")
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := &stubRepo{userByEmailErr: repository.ErrUserNotFound}
	svc := NewService(repo, nil, nil)

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCreateAppointment_ForeignPet(t *testing.T) {
	repo := &stubRepo{
		pet: &model.Pet{ID: 5, UserID: 99},
	}
	svc := NewService(repo, nil, nil)

	_, err := svc.CreateAppointment(context.Background(), model.Appointment{
		UserID: 1,
		PetID:  5,
	})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestCreateAppointment_Broadcasts(t *testing.T) {
	repo := &stubRepo{
		pet:                 &model.Pet{ID: 5, UserID: 1},
		service:             &model.Service{ID: 2},
		createAppointmentID: 10,
		appointment:         &model.Appointment{ID: 10, Status: model.AppointmentStatusConfirmed},
	}
	hub := &stubBroadcaster{}
	svc := NewService(repo, nil, hub)

	created, err := svc.CreateAppointment(context.Background(), model.Appointment{
		UserID:    1,
		PetID:     5,
		ServiceID: 2,
	})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if created.ID != 10 {
		t.Fatalf("appointment id = %d, want 10", created.ID)
	}
	if len(hub.actions) != 1 || hub.actions[0] != ws.ActionCreated {
		t.Fatalf("broadcast actions = %v, want [created]", hub.actions)
	}
}

func TestUpdateAppointmentStatus_UnknownStatus(t *testing.T) {
	svc := NewService(&stubRepo{}, nil, nil)

	_, err := svc.UpdateAppointmentStatus(context.Background(), 1, "done")
	if !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestUpdateAppointmentStatus_PropagatesTransitionError(t *testing.T) {
	repo := &stubRepo{transitionErr: repository.ErrInvalidTransition}
	svc := NewService(repo, nil, nil)

	_, err := svc.UpdateAppointmentStatus(context.Background(), 1, model.AppointmentStatusConfirmed)
	if !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateAppointmentStatus_Broadcasts(t *testing.T) {
	repo := &stubRepo{
		appointment: &model.Appointment{ID: 1, Status: model.AppointmentStatusInProgress},
	}
	hub := &stubBroadcaster{}
	svc := NewService(repo, nil, hub)

	_, err := svc.UpdateAppointmentStatus(context.Background(), 1, model.AppointmentStatusInProgress)
	if err != nil {
		t.Fatalf("UpdateAppointmentStatus error: %v", err)
	}
	if repo.transitionedTo != model.AppointmentStatusInProgress {
		t.Fatalf("transitioned to %s, want in_progress", repo.transitionedTo)
	}
	if len(hub.actions) != 1 || hub.actions[0] != ws.ActionStatusUpdated {
		t.Fatalf("broadcast actions = %v, want [status_updated]", hub.actions)
	}
}

func TestCancelAppointment_ForeignAppointment(t *testing.T) {
	repo := &stubRepo{
		appointment: &model.Appointment{ID: 1, UserID: 99},
	}
	svc := NewService(repo, nil, nil)

	_, err := svc.CancelAppointment(context.Background(), 1, 1)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestUpdateRolePermissions_SuperAdminImmutable(t *testing.T) {
	repo := &stubRepo{
		role: &model.Role{ID: 1, Name: rbac.RoleSuperAdmin},
	}
	svc := NewService(repo, nil, nil)

	_, err := svc.UpdateRolePermissions(context.Background(), 1, []string{rbac.PermScheduleView})
	if !errors.Is(err, ErrSuperAdminImmutable) {
		t.Fatalf("expected ErrSuperAdminImmutable, got %v", err)
	}
}

func TestUpdateRolePermissions_UnknownPermission(t *testing.T) {
	repo := &stubRepo{
		role: &model.Role{ID: 2, Name: "manager"},
	}
	svc := NewService(repo, nil, nil)

	_, err := svc.UpdateRolePermissions(context.Background(), 2, []string{"launch_rockets"})
	if !errors.Is(err, ErrUnknownPermission) {
		t.Fatalf("expected ErrUnknownPermission, got %v", err)
	}
}

func TestUpdateRolePermissions_OK(t *testing.T) {
	repo := &stubRepo{
		role: &model.Role{ID: 2, Name: "groomer"},
	}
	svc := NewService(repo, nil, nil)

	want := []string{rbac.PermScheduleView, rbac.PermPetManagement}
	if _, err := svc.UpdateRolePermissions(context.Background(), 2, want); err != nil {
		t.Fatalf("UpdateRolePermissions error: %v", err)
	}
	if len(repo.updatedPermissions) != 2 || repo.updatedPermissions[0] != want[0] {
		t.Fatalf("stored permissions = %v, want %v", repo.updatedPermissions, want)
	}
}

func TestDeleteRole_CoreRoleProtected(t *testing.T) {
	repo := &stubRepo{
		role: &model.Role{ID: 3, Name: "viewer"},
	}
	svc := NewService(repo, nil, nil)

	err := svc.DeleteRole(context.Background(), 3)
	if !errors.Is(err, ErrCoreRoleProtected) {
		t.Fatalf("expected ErrCoreRoleProtected, got %v", err)
	}
	if repo.deleteRoleCalled {
		t.Fatalf("DeleteRole must not reach the repository for core roles")
	}
}

func TestDeleteRole_InUse(t *testing.T) {
	repo := &stubRepo{
		role:          &model.Role{ID: 4, Name: "groomer"},
		usersWithRole: 2,
	}
	svc := NewService(repo, nil, nil)

	err := svc.DeleteRole(context.Background(), 4)
	if !errors.Is(err, ErrRoleInUse) {
		t.Fatalf("expected ErrRoleInUse, got %v", err)
	}
	if repo.deleteRoleCalled {
		t.Fatalf("DeleteRole must not reach the repository for roles in use")
	}
}

func TestDeleteRole_OK(t *testing.T) {
	repo := &stubRepo{
		role: &model.Role{ID: 4, Name: "groomer"},
	}
	svc := NewService(repo, nil, nil)

	if err := svc.DeleteRole(context.Background(), 4); err != nil {
		t.Fatalf("DeleteRole error: %v", err)
	}
	if !repo.deleteRoleCalled {
		t.Fatalf("DeleteRole must reach the repository")
	}
}

func TestPaymentAmount(t *testing.T) {
	svc := &model.Service{Price: 100, RequiresDeposit: true, DepositPercentage: 30}

	if got := PaymentAmount(svc, model.PaymentTypeDeposit); got != 30 {
		t.Fatalf("deposit amount = %v, want 30", got)
	}
	if got := PaymentAmount(svc, model.PaymentTypeFull); got != 100 {
		t.Fatalf("full amount = %v, want 100", got)
	}

	noDeposit := &model.Service{Price: 25, RequiresDeposit: false, DepositPercentage: 30}
	if got := PaymentAmount(noDeposit, model.PaymentTypeDeposit); got != 25 {
		t.Fatalf("amount for service without deposit = %v, want full price 25", got)
	}
}

func TestCreatePaymentIntent_UsesDepositAmount(t *testing.T) {
	repo := &stubRepo{
		service: &model.Service{ID: 1, Price: 100, RequiresDeposit: true, DepositPercentage: 30},
	}
	provider := &stubProvider{
		intent: &payment.Intent{ID: "pi_1", Status: "requires_payment_method"},
	}
	svc := NewService(repo, provider, nil)

	intent, err := svc.CreatePaymentIntent(context.Background(), 1, 1, model.PaymentTypeDeposit)
	if err != nil {
		t.Fatalf("CreatePaymentIntent error: %v", err)
	}
	if intent.ID != "pi_1" {
		t.Fatalf("intent id = %s, want pi_1", intent.ID)
	}
	if provider.createdAmount != 30 {
		t.Fatalf("provider amount = %v, want 30", provider.createdAmount)
	}
}

func TestConfirmPayment_NotSucceeded(t *testing.T) {
	repo := &stubRepo{
		pet:     &model.Pet{ID: 5, UserID: 1},
		payment: &model.Payment{ID: 3, UserID: 1, ProviderPaymentID: "pi_1", Status: "pending"},
	}
	provider := &stubProvider{
		intent: &payment.Intent{ID: "pi_1", Status: "requires_payment_method"},
	}
	svc := NewService(repo, provider, nil)

	_, err := svc.ConfirmPayment(context.Background(), model.Appointment{UserID: 1, PetID: 5}, "pi_1")
	if !errors.Is(err, ErrPaymentNotSucceeded) {
		t.Fatalf("expected ErrPaymentNotSucceeded, got %v", err)
	}
}

func TestConfirmPayment_ForeignPayment(t *testing.T) {
	repo := &stubRepo{
		pet:     &model.Pet{ID: 5, UserID: 1},
		payment: &model.Payment{ID: 3, UserID: 99, ProviderPaymentID: "pi_1", Status: "pending"},
	}
	provider := &stubProvider{
		intent: &payment.Intent{ID: "pi_1", Status: "succeeded"},
	}
	svc := NewService(repo, provider, nil)

	_, err := svc.ConfirmPayment(context.Background(), model.Appointment{UserID: 1, PetID: 5}, "pi_1")
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if repo.createAppointmentCalled {
		t.Fatalf("ConfirmPayment must not create an appointment for a foreign payment")
	}
}

func TestConfirmPayment_AlreadyUsed(t *testing.T) {
	attached := int64(7)
	repo := &stubRepo{
		pet: &model.Pet{ID: 5, UserID: 1},
		payment: &model.Payment{
			ID:                3,
			UserID:            1,
			AppointmentID:     &attached,
			ProviderPaymentID: "pi_1",
			Status:            "succeeded",
		},
	}
	provider := &stubProvider{
		intent: &payment.Intent{ID: "pi_1", Status: "succeeded"},
	}
	svc := NewService(repo, provider, nil)

	// Повторное подтверждение не должно породить вторую запись.
	_, err := svc.ConfirmPayment(context.Background(), model.Appointment{UserID: 1, PetID: 5}, "pi_1")
	if !errors.Is(err, ErrPaymentAlreadyUsed) {
		t.Fatalf("expected ErrPaymentAlreadyUsed, got %v", err)
	}
	if repo.createAppointmentCalled {
		t.Fatalf("ConfirmPayment must not create an appointment for a used payment")
	}
}

func TestConfirmPayment_OK(t *testing.T) {
	repo := &stubRepo{
		pet:                 &model.Pet{ID: 5, UserID: 1},
		createAppointmentID: 10,
		appointment:         &model.Appointment{ID: 10, Status: model.AppointmentStatusConfirmed},
		payment:             &model.Payment{ID: 3, UserID: 1, ProviderPaymentID: "pi_1", Status: "pending"},
	}
	provider := &stubProvider{
		intent: &payment.Intent{ID: "pi_1", Status: "succeeded"},
	}
	hub := &stubBroadcaster{}
	svc := NewService(repo, provider, hub)

	created, err := svc.ConfirmPayment(context.Background(), model.Appointment{UserID: 1, PetID: 5}, "pi_1")
	if err != nil {
		t.Fatalf("ConfirmPayment error: %v", err)
	}
	if created.ID != 10 {
		t.Fatalf("appointment id = %d, want 10", created.ID)
	}
	if repo.paymentStatusSet != "succeeded" {
		t.Fatalf("payment status = %s, want succeeded", repo.paymentStatusSet)
	}
	if len(hub.actions) != 1 || hub.actions[0] != ws.ActionCreated {
		t.Fatalf("broadcast actions = %v, want [created]", hub.actions)
	}
}

func TestDeletePhoto_ForeignPhoto(t *testing.T) {
	repo := &stubRepo{
		photo:        &model.PetPhoto{ID: 1, PhotoURL: "/uploads/a.jpg"},
		photoOwnerID: 99,
	}
	svc := NewService(repo, nil, nil)

	_, err := svc.DeletePhoto(context.Background(), 1, 1)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if repo.photoDeleted {
		t.Fatalf("DeletePhoto must not reach the repository for foreign photos")
	}
}

func TestGetRolePermissions_UnknownRole(t *testing.T) {
	repo := &stubRepo{roleErr: repository.ErrRoleNotFound}
	svc := NewService(repo, nil, nil)

	perms, err := svc.GetRolePermissions(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("GetRolePermissions error: %v", err)
	}
	if perms != nil {
		t.Fatalf("permissions = %v, want nil for unknown role", perms)
	}
}
