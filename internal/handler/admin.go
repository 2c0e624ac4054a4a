package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nenoreno/jakes-bath-house/internal/middleware"
	"github.com/nenoreno/jakes-bath-house/internal/model"
	"github.com/nenoreno/jakes-bath-house/internal/rbac"
)

// AdminGetAppointments возвращает записи всех клиентов с фильтрами по статусу и дате.
func (h *Handler) AdminGetAppointments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	date := r.URL.Query().Get("date")

	appointments, err := h.service.GetAppointmentsFiltered(r.Context(), status, date)
	if err != nil {
		h.respondError(w, err, "admin get appointments error")
		return
	}

	if appointments == nil {
		appointments = []model.Appointment{}
	}
	h.writeJSON(w, http.StatusOK, appointments)
}

// AdminUpdateAppointmentStatus переводит запись в новый статус от имени сотрудника.
func (h *Handler) AdminUpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
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

	a, err := h.service.UpdateAppointmentStatus(r.Context(), id, req.Status)
	if err != nil {
		h.respondError(w, err, "admin update appointment status error")
		return
	}

	h.writeJSON(w, http.StatusOK, a)
}

// AdminGetStats возвращает показатели за сегодняшний день.
func (h *Handler) AdminGetStats(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	stats, err := h.service.GetStats(r.Context(), date)
	if err != nil {
		h.respondError(w, err, "admin get stats error")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// AdminGetCustomers возвращает клиентов со счётчиками питомцев и записей.
func (h *Handler) AdminGetCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.GetCustomers(r.Context())
	if err != nil {
		h.respondError(w, err, "admin get customers error")
		return
	}

	if customers == nil {
		customers = []model.CustomerSummary{}
	}
	h.writeJSON(w, http.StatusOK, customers)
}

// AdminGetStaff возвращает список сотрудников.
func (h *Handler) AdminGetStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.service.GetStaff(r.Context())
	if err != nil {
		h.respondError(w, err, "admin get staff error")
		return
	}

	if staff == nil {
		staff = []model.StaffMember{}
	}
	h.writeJSON(w, http.StatusOK, staff)
}

type staffRequest struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Password  string     `json:"password"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	HiredDate *time.Time `json:"hired_date,omitempty"`
	Salary    *float64   `json:"salary,omitempty"`
	Notes     string     `json:"notes"`
}

// AdminCreateStaff создаёт учётную запись сотрудника.
func (h *Handler) AdminCreateStaff(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req staffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateStaffMember(r.Context(), model.StaffMember{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      req.Role,
		HiredDate: req.HiredDate,
		Salary:    req.Salary,
		Notes:     req.Notes,
		CreatedBy: session.UserID,
	}, req.Password)
	if err != nil {
		h.respondError(w, err, "admin create staff error")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// AdminUpdateStaff обновляет запись о сотруднике.
func (h *Handler) AdminUpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req staffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err = h.service.UpdateStaffMember(r.Context(), model.StaffMember{
		UserID:     id,
		Role:       req.Role,
		HiredDate:  req.HiredDate,
		Salary:     req.Salary,
		Notes:      req.Notes,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		UserStatus: req.Status,
	})
	if err != nil {
		h.respondError(w, err, "admin update staff error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// AdminDeactivateUser деактивирует учётную запись. Учётная запись
// super_admin не деактивируется.
func (h *Handler) AdminDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "admin get user error")
		return
	}
	if u.Role == rbac.RoleSuperAdmin {
		http.Error(w, "super_admin cannot be deactivated", http.StatusBadRequest)
		return
	}

	if err := h.service.DeactivateCustomer(r.Context(), id); err != nil {
		h.respondError(w, err, "admin deactivate user error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdminGetRoles возвращает все роли.
func (h *Handler) AdminGetRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.GetRoles(r.Context())
	if err != nil {
		h.respondError(w, err, "admin get roles error")
		return
	}

	if roles == nil {
		roles = []model.Role{}
	}
	h.writeJSON(w, http.StatusOK, roles)
}

type roleRequest struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	Color       string   `json:"color"`
}

// AdminCreateRole создаёт новую роль.
func (h *Handler) AdminCreateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	role, err := h.service.CreateRole(r.Context(), model.Role{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Permissions: req.Permissions,
		Color:       req.Color,
	})
	if err != nil {
		h.respondError(w, err, "admin create role error")
		return
	}

	h.writeJSON(w, http.StatusCreated, role)
}

type permissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// AdminUpdateRolePermissions замещает набор разрешений роли.
func (h *Handler) AdminUpdateRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req permissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	role, err := h.service.UpdateRolePermissions(r.Context(), id, req.Permissions)
	if err != nil {
		h.respondError(w, err, "admin update role permissions error")
		return
	}

	h.writeJSON(w, http.StatusOK, role)
}

// AdminDeleteRole удаляет роль.
func (h *Handler) AdminDeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.respondError(w, err, "admin delete role error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdminGetPermissions возвращает каталог известных разрешений.
func (h *Handler) AdminGetPermissions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Permissions())
}

// AdminGetSettings возвращает настройки бизнеса.
func (h *Handler) AdminGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.respondError(w, err, "admin get settings error")
		return
	}

	if settings == nil {
		settings = []model.Setting{}
	}
	h.writeJSON(w, http.StatusOK, settings)
}

// AdminGetSettingCategories возвращает категории настроек.
func (h *Handler) AdminGetSettingCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.GetSettingCategories(r.Context())
	if err != nil {
		h.respondError(w, err, "admin get setting categories error")
		return
	}

	if categories == nil {
		categories = []string{}
	}
	h.writeJSON(w, http.StatusOK, categories)
}

type settingRequest struct {
	Value string `json:"value"`
}

// AdminUpdateSetting обновляет значение настройки.
func (h *Handler) AdminUpdateSetting(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	category := chi.URLParam(r, "category")
	key := chi.URLParam(r, "key")

	var req settingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateSetting(r.Context(), category, key, req.Value, session.UserID); err != nil {
		h.respondError(w, err, "admin update setting error")
		return
	}

	w.WriteHeader(http.StatusOK)
}
