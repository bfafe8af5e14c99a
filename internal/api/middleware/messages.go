package middleware

import "golang.org/x/text/language"

var (
	supportedLanguages = []language.Tag{language.English, language.Arabic}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

var messages = map[string]map[language.Tag]string{
	CodeAuthRequired: {
		language.English: "Authentication required",
		language.Arabic:  "يجب تسجيل الدخول أولاً",
	},
	CodeUserNotFound: {
		language.English: "User not found",
		language.Arabic:  "المستخدم غير موجود",
	},
	CodeAccountInactive: {
		language.English: "Account is not active",
		language.Arabic:  "الحساب غير نشط",
	},
	CodePermissionDenied: {
		language.English: "You do not have permission to perform this action",
		language.Arabic:  "ليس لديك صلاحية للقيام بهذا الإجراء",
	},
	CodeRoleDenied: {
		language.English: "Your role does not allow access to this resource",
		language.Arabic:  "دورك لا يسمح بالوصول إلى هذا المورد",
	},
	CodeAuthError: {
		language.English: "Authorization check failed",
		language.Arabic:  "تعذر التحقق من الصلاحيات",
	},
}

// Negotiate picks Arabic or English from an Accept-Language header value.
// Anything unparseable or unmatched falls back to English.
func Negotiate(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return language.English
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := languageMatcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return supportedLanguages[idx]
}

func message(code string, lang language.Tag) string {
	m, ok := messages[code]
	if !ok {
		m = messages[CodeAuthError]
	}
	if s, ok := m[lang]; ok {
		return s
	}
	return m[language.English]
}
