package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"coachbook/pkg/logger"
	"coachbook/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type AvailabilityValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAvailabilityValidator(log *logger.Logger) *AvailabilityValidator {
	v := validator.New()

	if err := v.RegisterValidation("timeofday", validateTimeOfDay); err != nil {
		log.Fatal("Failed to register 'timeofday' validator", "error", err)
	}

	log.Info("Availability validator initialized successfully")

	return &AvailabilityValidator{
		validate: v,
		logger:   log,
	}
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	_, err := time.Parse("15:04", value)
	return err == nil
}

func (v *AvailabilityValidator) ValidateWindow(w *model.AvailabilityWindow) error {
	if err := v.validate.Struct(w); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if w.EndTime <= w.StartTime {
		return ValidationErrors{{
			Field:   "EndTime",
			Message: "end_time must be after start_time",
		}}
	}
	return nil
}

func (v *AvailabilityValidator) ValidateBlock(b *model.BlockedInterval) error {
	if err := v.validate.Struct(b); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	var errs ValidationErrors
	if b.Date == "" && b.DayOfWeek == nil {
		errs = append(errs, ValidationError{
			Field:   "Date",
			Message: "either date or day_of_week must be set",
		})
	}
	if b.Date != "" && b.DayOfWeek != nil {
		errs = append(errs, ValidationError{
			Field:   "Date",
			Message: "date and day_of_week are mutually exclusive",
		})
	}
	if b.EndTime <= b.StartTime {
		errs = append(errs, ValidationError{
			Field:   "EndTime",
			Message: "end_time must be after start_time",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *AvailabilityValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min", "max":
			message = fmt.Sprintf("%s is out of range", err.Field())
		case "timeofday":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be in YYYY-MM-DD format", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
