package teacher

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/roster/core"
)

var (
	phoneTag   = "phone"
	phoneText  = "{0} must be a valid phone number"
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,19}$`)

	accountTag   = "account"
	accountText  = "{0} must contain 6 to 20 digits"
	accountRegex = regexp.MustCompile(`^[0-9]{6,20}$`)

	ifscTag   = "ifsc"
	ifscText  = "{0} must be a valid IFSC code (eg. SBIN0001234)"
	ifscRegex = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

	upiTag   = "upi"
	upiText  = "{0} must be a valid UPI ID (eg. name@bank)"
	upiRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,256}@[a-zA-Z]{2,64}$`)
)

// InitValidators registers the teacher form validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	_ = validate.RegisterValidation(accountTag, sentinelOr(accountRegex))
	core.RegisterCustomTranslation(validate, translator, accountTag, accountText)

	_ = validate.RegisterValidation(ifscTag, sentinelOr(ifscRegex))
	core.RegisterCustomTranslation(validate, translator, ifscTag, ifscText)

	_ = validate.RegisterValidation(upiTag, sentinelOr(upiRegex))
	core.RegisterCustomTranslation(validate, translator, upiTag, upiText)
}

// Custom Validators

func phoneValidation(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

// sentinelOr accepts the NotProvided sentinel or a value matching re.
func sentinelOr(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		return val == NotProvided || re.MatchString(val)
	}
}
