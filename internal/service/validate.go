package service

import (
	"errors"
	"strings"

	goaway "github.com/TwiN/go-away"
	"github.com/asaskevich/govalidator"
	"github.com/kaiwsv/rootsrecipes-api/internal/models"
)

// Mode selects which search flavor is being dispatched.
type Mode string

const (
	ModeRecipe   Mode = "recipe"
	ModeBusiness Mode = "business"
)

// Validation sentinels. These are the only errors the search entry points
// return; everything past validation degrades to an empty bundle instead.
var (
	ErrNoIngredients   = errors.New("at least one ingredient must be selected")
	ErrInvalidZipCode  = errors.New("a 5-digit zip code is required for business search")
	ErrProfaneCriteria = errors.New("selection contains language that cannot be searched")
)

var profanityDetector = goaway.NewProfanityDetector().
	WithSanitizeLeetSpeak(true).
	WithSanitizeSpecialCharacters(true).
	WithSanitizeAccents(false)

// ValidateCriteria runs the synchronous pre-flight checks. A failing
// criteria set must never reach a provider.
func ValidateCriteria(criteria models.SearchCriteria, mode Mode) error {
	if len(nonEmpty(criteria.Ingredients)) == 0 {
		return ErrNoIngredients
	}

	if mode == ModeBusiness {
		zip := strings.TrimSpace(criteria.ZipCode)
		if len(zip) != 5 || !govalidator.IsNumeric(zip) {
			return ErrInvalidZipCode
		}
	}

	// Free-text selections end up verbatim inside the prompt; screen them
	// the same way user-supplied names are screened elsewhere.
	for _, group := range [][]string{criteria.Ingredients, criteria.Appliances, criteria.Cultures} {
		for _, value := range group {
			if profanityDetector.IsProfane(value) {
				return ErrProfaneCriteria
			}
		}
	}

	return nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
