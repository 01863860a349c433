package http

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

const (
	langEnglish  = "en"
	langJapanese = "ja"
	langChinese  = "zh"
)

var (
	supportedLanguages = []language.Tag{language.English, language.Japanese, language.Chinese}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

// preferredLanguage picks en, ja, or zh from Accept-Language. Unknown or
// malformed headers fall back to English.
func preferredLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return langEnglish
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return langEnglish
	}
	_, index, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return langEnglish
	}
	switch supportedLanguages[index] {
	case language.Japanese:
		return langJapanese
	case language.Chinese:
		return langChinese
	default:
		return langEnglish
	}
}

// Localize records the preferred response language in the request context.
func Localize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := preferredLanguage(r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Language", lang)
		next.ServeHTTP(w, r.WithContext(ContextWithLanguage(r.Context(), lang)))
	})
}

var errorMessages = map[string]map[string]string{
	"bad_request": {
		langEnglish:  "The request could not be read.",
		langJapanese: "リクエスト内容が正しくありません。",
		langChinese:  "无法读取请求内容。",
	},
	"unauthorized": {
		langEnglish:  "Please sign in as an administrator again.",
		langJapanese: "管理者として再度ログインしてください。",
		langChinese:  "请重新以管理员身份登录。",
	},
	"forbidden": {
		langEnglish:  "You can only cancel your own registration.",
		langJapanese: "ご自身の登録のみ取り消せます。",
		langChinese:  "只能取消您本人的报名。",
	},
	"not_found": {
		langEnglish:  "The requested item was not found.",
		langJapanese: "指定された項目が見つかりません。",
		langChinese:  "未找到请求的项目。",
	},
	"full": {
		langEnglish:  "This class is full.",
		langJapanese: "このクラスは定員に達しています。",
		langChinese:  "该课程名额已满。",
	},
	"already_registered": {
		langEnglish:  "This email address is already registered.",
		langJapanese: "このメールアドレスは既に登録されています。",
		langChinese:  "该邮箱地址已报名。",
	},
	"invalid_credentials": {
		langEnglish:  "The password is incorrect.",
		langJapanese: "パスワードが正しくありません。",
		langChinese:  "密码不正确。",
	},
	"admin_not_configured": {
		langEnglish:  "No administrator password has been set.",
		langJapanese: "管理者パスワードが設定されていません。",
		langChinese:  "尚未设置管理员密码。",
	},
	"store_unavailable": {
		langEnglish:  "The calendar could not be reached. Please try again.",
		langJapanese: "カレンダーに接続できませんでした。もう一度お試しください。",
		langChinese:  "无法连接日历，请重试。",
	},
	"validation": {
		langEnglish:  "Please check the highlighted fields.",
		langJapanese: "入力内容に誤りがあります。",
		langChinese:  "请检查填写的内容。",
	},
	"unexpected": {
		langEnglish:  "Something went wrong on the server.",
		langJapanese: "サーバー内部でエラーが発生しました。",
		langChinese:  "服务器内部发生错误。",
	},
}

func errorMessage(ctx context.Context, code string) string {
	lang := LanguageFromContext(ctx)
	if messages, ok := errorMessages[code]; ok {
		if msg, ok := messages[lang]; ok {
			return msg
		}
		return messages[langEnglish]
	}
	return errorMessages["unexpected"][lang]
}

var fieldMessages = map[string]map[string]string{
	"is required": {
		langJapanese: "必須項目です。",
		langChinese:  "此项为必填项。",
	},
	"must be a valid email address": {
		langJapanese: "メールアドレスの形式が不正です。",
		langChinese:  "邮箱地址格式不正确。",
	},
	"must be a #RRGGBB colour": {
		langJapanese: "色は #RRGGBB 形式で指定してください。",
		langChinese:  "颜色须为 #RRGGBB 格式。",
	},
	"must be a calendar date in YYYY-MM-DD format": {
		langJapanese: "日付は YYYY-MM-DD 形式で指定してください。",
		langChinese:  "日期须为 YYYY-MM-DD 格式。",
	},
	"must be HH:MM": {
		langJapanese: "時刻は HH:MM 形式で指定してください。",
		langChinese:  "时间须为 HH:MM 格式。",
	},
	"must be after the start time": {
		langJapanese: "終了時刻は開始時刻より後にしてください。",
		langChinese:  "结束时间须晚于开始时间。",
	},
	"must not be negative": {
		langJapanese: "負の値は指定できません。",
		langChinese:  "不能为负数。",
	},
	"at least one class is required": {
		langJapanese: "少なくとも 1 つのクラスが必要です。",
		langChinese:  "至少需要一个课程。",
	},
	"must be beginner, intermediate, or experience": {
		langJapanese: "種別は初級・中級・体験のいずれかです。",
		langChinese:  "类型须为初级、中级或体验。",
	},
	"must be greater than zero": {
		langJapanese: "0 より大きい値を指定してください。",
		langChinese:  "须大于零。",
	},
	"must be at least 1": {
		langJapanese: "1 以上を指定してください。",
		langChinese:  "至少为 1。",
	},
	"does not match password": {
		langJapanese: "パスワードが一致しません。",
		langChinese:  "两次输入的密码不一致。",
	},
	"must be a calendar date on or after the first date": {
		langJapanese: "開始日以降の日付を YYYY-MM-DD 形式で指定してください。",
		langChinese:  "须为不早于开始日期的 YYYY-MM-DD 日期。",
	},
	"must name days of the week": {
		langJapanese: "曜日名を指定してください。",
		langChinese:  "须为星期名称。",
	},
	"selects too many dates": {
		langJapanese: "対象となる日付が多すぎます。",
		langChinese:  "选中的日期过多。",
	},
	"must select at least one date": {
		langJapanese: "少なくとも 1 日を選択してください。",
		langChinese:  "至少需要选中一个日期。",
	},
	"must be between 1900 and 2100": {
		langJapanese: "1900 から 2100 の間で指定してください。",
		langChinese:  "须在 1900 到 2100 之间。",
	},
	"must be between 1 and 12": {
		langJapanese: "1 から 12 の間で指定してください。",
		langChinese:  "须在 1 到 12 之间。",
	},
}

func translateFieldMessage(lang, message string) string {
	if lang == langEnglish {
		return message
	}
	if messages, ok := fieldMessages[message]; ok {
		if msg, ok := messages[lang]; ok {
			return msg
		}
	}
	switch {
	case strings.HasPrefix(message, "must be at least ") && strings.HasSuffix(message, " characters"):
		n := strings.TrimSuffix(strings.TrimPrefix(message, "must be at least "), " characters")
		if lang == langJapanese {
			return n + " 文字以上で入力してください。"
		}
		return "至少需要 " + n + " 个字符。"
	case strings.HasPrefix(message, "duplicate id "):
		id := strings.TrimPrefix(message, "duplicate id ")
		if lang == langJapanese {
			return "ID が重複しています: " + id
		}
		return "ID 重复: " + id
	}
	return message
}
