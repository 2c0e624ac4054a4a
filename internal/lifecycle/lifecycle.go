// Package lifecycle описывает машину состояний записи на услугу.
package lifecycle

import "github.com/nenoreno/jakes-bath-house/internal/model"

// transitions содержит полный набор допустимых переходов статусов.
// Таблица авторитетна: любой переход вне её отклоняется сервером.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusConfirmed:  {model.AppointmentStatusInProgress, model.AppointmentStatusCancelled},
	model.AppointmentStatusInProgress: {model.AppointmentStatusCompleted, model.AppointmentStatusCancelled},
}

// IsValidStatus сообщает, входит ли значение в закрытый набор статусов.
func IsValidStatus(s model.AppointmentStatus) bool {
	switch s {
	case model.AppointmentStatusConfirmed,
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled:
		return true
	}
	return false
}

// CanTransition сообщает, разрешён ли переход из статуса from в статус to.
// Повторное применение уже совершённого перехода (from == to) считается
// допустимым no-op: повторный сетевой вызов не меняет итоговое состояние.
func CanTransition(from, to model.AppointmentStatus) bool {
	if !IsValidStatus(from) || !IsValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal сообщает, является ли статус конечным.
func IsTerminal(s model.AppointmentStatus) bool {
	return s == model.AppointmentStatusCompleted || s == model.AppointmentStatusCancelled
}
