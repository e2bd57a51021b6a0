package profile

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/flowlearn/pawfessor/core"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to your name or email"
)

// InitValidators registers the profile validations & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(profileStructValidation, NewProfile{}, UpdateProfile{})

	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// profileStructValidation does struct level validation on NewProfile and UpdateProfile.
func profileStructValidation(sl validator.StructLevel) {
	switch p := sl.Current().Interface().(type) {
	case NewProfile:
		if p.Password != "" { // required reports it
			validatePassword(p.Password, p.Name, p.Email, sl)
		}
	case UpdateProfile:
		if p.Password != "" {
			validatePassword(p.Password, p.Name, p.Email, sl)
		}
	}
}

// validatePassword applies the password policy:
// - minLen: 8
// - no whitespace
// - not all numeric
// - not similar to the name or the email
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	if tag := passwordPolicyViolation(pwd, name, email); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

// passwordPolicyViolation returns the tag of the first broken rule, or "".
func passwordPolicyViolation(pwd, name, email string) string {
	if len([]rune(pwd)) < pwdMinLen {
		return pwdMinLenTag
	}

	allNum := true
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if !unicode.IsDigit(char) {
			allNum = false
		}
	}
	if allNum {
		return pwdNotAllNumTag
	}

	lpwd := strings.ToLower(pwd)
	local := email
	if i := strings.Index(email, "@"); i > 0 {
		local = email[:i]
	}
	for _, attr := range []string{name, email, local} {
		if similarity(lpwd, strings.ToLower(attr)) >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}
	return ""
}

func similarity(pwd, attr string) float64 {
	if attr == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, "")).QuickRatio()
}
