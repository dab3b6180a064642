package httpapi

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"Herald/internal/domain"
)

// Action names accepted in POST bodies.
const (
	actionSendEditorialPrompt   = "send_editorial_prompt"
	actionSubmitEditorial       = "submit_editorial"
	actionSendfoxSend           = "sendfox_send"
	actionAggregateIntelligence = "aggregate_intelligence"
	actionExecuteAgent          = "execute_agent"
	actionUpdateEdition         = "update_edition"
)

type envelope struct {
	Action string `json:"action"`
}

type generateRequest struct {
	EditionType string `json:"edition_type" validate:"omitempty,oneof=weekly monthly"`
	EditionID   string `json:"edition_id"`
}

type promptRequest struct {
	EditionID string `json:"edition_id" validate:"required"`
}

type editorialRequest struct {
	EditionID string `json:"edition_id" validate:"required"`
	Topic     string `json:"topic" validate:"required,max=500"`
	Takeaway  string `json:"takeaway" validate:"max=1000"`
}

type handoffRequest struct {
	EditionID string `json:"edition_id" validate:"required"`
	ListID    string `json:"list_id"`
}

type agentRequest struct {
	AgentType      string `json:"agent_type" validate:"required"`
	Title          string `json:"title" validate:"required,max=300"`
	Description    string `json:"description" validate:"max=4000"`
	TargetPlatform string `json:"target_platform" validate:"max=100"`
}

type updateRequest struct {
	EditionID    string     `json:"edition_id" validate:"required"`
	Status       string     `json:"status" validate:"required"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates req and reports the first failing field as a domain.ValidationError.
func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return domain.Invalid("", "invalid request: %v", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return domain.Invalid(fe.Field(), "is required")
	case "oneof":
		return domain.Invalid(fe.Field(), "must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return domain.Invalid(fe.Field(), "must be at most %s characters", fe.Param())
	default:
		return domain.Invalid(fe.Field(), "failed %s validation", fe.Tag())
	}
}
