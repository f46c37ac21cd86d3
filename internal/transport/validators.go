package transport

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"go-tryon/pkg/models"
)

var registerOnce sync.Once

// registerValidators adds the try-on tags to gin's binding validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("fit_preference", validateFitPreference)
		_ = v.RegisterValidation("capture_view", validateCaptureView)
	})
}

func validateFitPreference(fl validator.FieldLevel) bool {
	switch models.FitPreference(strings.ToLower(strings.TrimSpace(fl.Field().String()))) {
	case "", models.FitSlim, models.FitRegular, models.FitRelaxed:
		return true
	}
	return false
}

func validateCaptureView(fl validator.FieldLevel) bool {
	switch models.CaptureView(fl.Field().String()) {
	case models.ViewFront, models.ViewSide:
		return true
	}
	return false
}

// bindingMessage turns a binding failure into a client-facing sentence.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "request body is not valid JSON"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "fit_preference":
		return "profile.fitPreference must be slim, regular or relaxed"
	case "capture_view":
		return "capture view must be front or side"
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
