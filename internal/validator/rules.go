package validator

import (
	"log"

	"picoworker_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует кастомные функции валидации
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Без правил приложение запускать нельзя
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'is-user-role': роль, которую можно выбрать при регистрации (admin только через сид)
	mustRegister("is-user-role", validateSignupRole)

	// 'is-any-role': любая роль, для админского изменения
	mustRegister("is-any-role", validateAnyRole)

	// 'is-submission-status': фильтр списка отправок
	mustRegister("is-submission-status", validateSubmissionStatus)
}

func validateSignupRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // для пустых есть 'required'
	}
	switch models.UserRole(value) {
	case models.UserRoleWorker, models.UserRoleTaskCreator:
		return true
	default:
		return false
	}
}

func validateAnyRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.UserRole(value).IsValid()
}

func validateSubmissionStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.SubmissionStatus(value).IsValid()
}
