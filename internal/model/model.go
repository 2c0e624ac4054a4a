// Package model содержит доменные сущности сервиса бронирования Jake's Bath House.
package model

import "time"

// User представляет зарегистрированного клиента или сотрудника.
type User struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Password  []byte     `json:"-"`
	WashCount int        `json:"wash_count"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Статусы учётной записи пользователя.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// RewardInterval задаёт число DIY-моек, после которого клиенту положена бесплатная.
const RewardInterval = 5

// VisitsUntilReward возвращает, сколько моек осталось до бесплатной.
func VisitsUntilReward(washCount int) int {
	return RewardInterval - washCount%RewardInterval
}

// Pet описывает питомца, принадлежащего пользователю.
type Pet struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Breed  string `json:"breed"`
	Size   string `json:"size"`
	Notes  string `json:"notes"`
}

// ServiceType описывает вид услуги: полный груминг или мойка своими руками.
type ServiceType string

const (
	ServiceTypeGroom ServiceType = "groom"
	ServiceTypeDIY   ServiceType = "diy"
)

// Service описывает услугу из каталога.
type Service struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	Type              ServiceType `json:"type"`
	Price             float64     `json:"price"`
	DurationMinutes   int         `json:"duration_minutes"`
	Description       string      `json:"description"`
	Active            bool        `json:"active"`
	RequiresDeposit   bool        `json:"requires_deposit"`
	DepositPercentage int         `json:"deposit_percentage"`
}

// AppointmentStatus описывает статус записи в жизненном цикле.
type AppointmentStatus string

const (
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
)

// Appointment описывает запись клиента на услугу.
type Appointment struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	PetID     int64             `json:"pet_id"`
	ServiceID int64             `json:"service_id"`
	Date      string            `json:"appointment_date"`
	Time      string            `json:"appointment_time"`
	Status    AppointmentStatus `json:"status"`
	Notes     string            `json:"notes"`
	PaymentID *int64            `json:"payment_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`

	// Поля из связанных таблиц для отображения.
	CustomerName  string   `json:"customer_name,omitempty"`
	CustomerEmail string   `json:"customer_email,omitempty"`
	PetName       string   `json:"pet_name,omitempty"`
	ServiceName   string   `json:"service_name,omitempty"`
	ServiceType   string   `json:"service_type,omitempty"`
	PaymentStatus *string  `json:"payment_status,omitempty"`
	PaymentType   *string  `json:"payment_type,omitempty"`
	AmountPaid    *float64 `json:"amount_paid,omitempty"`
}

// PaymentType описывает вид платежа: полная оплата или депозит.
type PaymentType string

const (
	PaymentTypeFull    PaymentType = "full"
	PaymentTypeDeposit PaymentType = "deposit"
)

// Payment описывает платёж, проведённый через внешнего платёжного провайдера.
type Payment struct {
	ID                int64       `json:"id"`
	AppointmentID     *int64      `json:"appointment_id,omitempty"`
	UserID            int64       `json:"user_id"`
	ProviderPaymentID string      `json:"provider_payment_id"`
	Amount            float64     `json:"amount"`
	Currency          string      `json:"currency"`
	Status            string      `json:"status"`
	Type              PaymentType `json:"payment_type"`
	CreatedAt         time.Time   `json:"created_at"`
}

// Role описывает именованную роль с набором разрешений.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// StaffMember описывает запись о сотруднике вместе с данными его учётной записи.
type StaffMember struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Role      string     `json:"role"`
	HiredDate *time.Time `json:"hired_date,omitempty"`
	Salary    *float64   `json:"salary,omitempty"`
	Notes     string     `json:"notes"`
	CreatedBy int64      `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`

	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	UserStatus string     `json:"user_status"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

// Setting описывает настройку бизнеса, редактируемую через админ-панель.
type Setting struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category"`
	Key         string    `json:"setting_key"`
	Value       string    `json:"setting_value"`
	DataType    string    `json:"data_type"`
	Description string    `json:"description"`
	UpdatedBy   *int64    `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CustomerSummary содержит клиента со счётчиками для админского списка.
type CustomerSummary struct {
	User
	PetCount         int `json:"pet_count"`
	AppointmentCount int `json:"appointment_count"`
}

// Stats содержит агрегированные показатели для админской панели.
type Stats struct {
	TodayRevenue      float64        `json:"today_revenue"`
	TodayAppointments int            `json:"today_appointments"`
	TotalCustomers    int            `json:"total_customers"`
	StatusCounts      map[string]int `json:"status_counts"`
}

// PetPhoto описывает фотографию питомца в галерее.
type PetPhoto struct {
	ID            int64     `json:"id"`
	PetID         int64     `json:"pet_id"`
	AppointmentID *int64    `json:"appointment_id,omitempty"`
	PhotoURL      string    `json:"photo_url"`
	PhotoType     string    `json:"photo_type"`
	Caption       string    `json:"caption"`
	FileSize      *int64    `json:"file_size,omitempty"`
	FileType      string    `json:"file_type,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	PetName      string `json:"pet_name,omitempty"`
	LikeCount    int    `json:"like_count"`
	CommentCount int    `json:"comment_count"`
}

// PhotoComment описывает комментарий к фотографии.
type PhotoComment struct {
	ID            int64     `json:"id"`
	PhotoID       int64     `json:"photo_id"`
	UserID        int64     `json:"user_id"`
	Text          string    `json:"comment_text"`
	CreatedAt     time.Time `json:"created_at"`
	CommenterName string    `json:"commenter_name,omitempty"`
	CommenterRole string    `json:"commenter_role,omitempty"`
}
