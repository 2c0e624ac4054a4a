// Package rbac содержит единый каталог разрешений и проверку прав ролей.
// Каталог объявлен только здесь: все обработчики и middleware обращаются
// к этому пакету, а не держат собственные копии.
package rbac

// RoleSuperAdmin обладает всеми разрешениями независимо от сохранённого набора.
const RoleSuperAdmin = "super_admin"

// Имена встроенных ролей, которые нельзя удалить.
const (
	RoleManager  = "manager"
	RoleStaff    = "staff"
	RoleViewer   = "viewer"
	RoleCustomer = "customer"
)

// Имена разрешений из фиксированного каталога.
const (
	PermSystemSettings        = "system_settings"
	PermUserManagement        = "user_management"
	PermRoleManagement        = "role_management"
	PermFinancialReports      = "financial_reports"
	PermAppointmentManagement = "appointment_management"
	PermCustomerManagement    = "customer_management"
	PermServiceManagement     = "service_management"
	PermAnalytics             = "analytics"
	PermStaffManagement       = "staff_management"
	PermBusinessSettings      = "business_settings"
	PermCustomerService       = "customer_service"
	PermPetManagement         = "pet_management"
	PermBasicReports          = "basic_reports"
	PermScheduleView          = "schedule_view"
	PermCustomerLookup        = "customer_lookup"
)

// Permission описывает один элемент каталога разрешений.
type Permission struct {
	Name     string `json:"name"`
	Display  string `json:"display"`
	Category string `json:"category"`
}

// Catalog возвращает фиксированный каталог разрешений, сгруппированный по категориям.
func Catalog() []Permission {
	return []Permission{
		{Name: PermSystemSettings, Display: "System Settings", Category: "admin"},
		{Name: PermUserManagement, Display: "User Management", Category: "admin"},
		{Name: PermRoleManagement, Display: "Role Management", Category: "admin"},
		{Name: PermStaffManagement, Display: "Staff Management", Category: "admin"},
		{Name: PermFinancialReports, Display: "Financial Reports", Category: "business"},
		{Name: PermServiceManagement, Display: "Service Management", Category: "business"},
		{Name: PermAnalytics, Display: "Analytics", Category: "business"},
		{Name: PermBusinessSettings, Display: "Business Settings", Category: "business"},
		{Name: PermAppointmentManagement, Display: "Appointment Management", Category: "operations"},
		{Name: PermCustomerManagement, Display: "Customer Management", Category: "operations"},
		{Name: PermCustomerService, Display: "Customer Service", Category: "operations"},
		{Name: PermPetManagement, Display: "Pet Management", Category: "operations"},
		{Name: PermBasicReports, Display: "Basic Reports", Category: "operations"},
		{Name: PermScheduleView, Display: "Schedule View", Category: "operations"},
		{Name: PermCustomerLookup, Display: "Customer Lookup", Category: "operations"},
	}
}

// IsKnownPermission сообщает, входит ли имя в каталог.
func IsKnownPermission(name string) bool {
	for _, p := range Catalog() {
		if p.Name == name {
			return true
		}
	}
	return false
}

// IsCoreRole сообщает, является ли роль встроенной и неудаляемой.
func IsCoreRole(name string) bool {
	switch name {
	case RoleSuperAdmin, RoleManager, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// HasPermission решает, разрешено ли действие роли с сохранённым набором granted.
// super_admin всегда получает разрешение, каким бы ни был сохранённый набор.
func HasPermission(role string, granted []string, permission string) bool {
	if role == RoleSuperAdmin {
		return true
	}
	for _, g := range granted {
		if g == permission {
			return true
		}
	}
	return false
}
