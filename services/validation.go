package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validationMessages maps "<jsonField>.<tag>" to a client message.
var validationMessages = map[string]string{
	"username.required":         "Username is required",
	"username.max":              "Username must be at most 64 characters",
	"email.required":            "Email is required",
	"email.email":               "Email must be a valid email address",
	"password.required":         "Password is required",
	"password.min":              "Password must be at least 6 characters",
	"matchId.required":          "Match ID is required",
	"predictedOutcome.required": "Predicted outcome is required",
	"predictedOutcome.oneof":    "Predicted outcome must be home_win, away_win or draw",
	"predictedHomeScore.min":    "Predicted scores must be between 0 and 99",
	"predictedHomeScore.max":    "Predicted scores must be between 0 and 99",
	"predictedAwayScore.min":    "Predicted scores must be between 0 and 99",
	"predictedAwayScore.max":    "Predicted scores must be between 0 and 99",
	"homeScore.min":             "Scores must not be negative",
	"awayScore.min":             "Scores must not be negative",
	"status.oneof":              "Status must be scheduled, live, finished or postponed",
	"roundNumber.required":      "Round number is required",
	"roundNumber.min":           "Round number must be at least 1",
	"name.required":             "Name is required",
	"name.max":                  "Name is too long",
	"shortName.required":        "Short name is required",
	"shortName.max":             "Short name must be at most 8 characters",
	"startDate.required":        "Start date is required",
	"endDate.required":          "End date is required",
	"roundId.required":          "Round ID is required",
	"homeTeamId.required":       "Home team ID is required",
	"awayTeamId.required":       "Away team ID is required",
	"matchDate.required":        "Match date is required",
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	first := verrs[0]
	if msg, ok := validationMessages[first.Field()+"."+first.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("%s is invalid", first.Field())
}

func validateInput(in interface{}) error {
	if err := validate.Struct(in); err != nil {
		return validationError(validationMessage(err))
	}
	return nil
}
