package i18n

import "sync"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "field").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "missing_required_field":
			return "必須フィールドが文書内に見つかりません"
		case "ambiguous_match":
			return "複数のノードが一致したため先頭を使用しました"
		case "unparsable_value":
			return "値を解析できません"
		case "malformed_array_pairing":
			return "偶数/奇数行の対応が取れません"
		case "parse_error":
			return "文書を解析できません"
		case "invalid_type":
			return "型が不正です"
		case "required":
			return "必須の値が null です"
		case "blank":
			return "空文字は許可されていません"
		case "invalid_enum":
			return "許可された値ではありません"
		case "pattern":
			return "パターンに一致しません"
		case "invalid_format":
			return "形式が不正です"
		case "too_small":
			return "小さすぎます"
		case "unknown_key":
			return "未知のキーです"
		case "duplicate_key":
			return "キーが重複しています"
		case "schema_mismatch":
			return "JSON Schema に適合しません"
		}
	default: // "en"
		switch code {
		case "missing_required_field":
			return "required field not found in document"
		case "ambiguous_match":
			return "multiple nodes matched; using the first"
		case "unparsable_value":
			return "value could not be parsed"
		case "malformed_array_pairing":
			return "even/odd rows do not pair up"
		case "parse_error":
			return "document could not be parsed"
		case "invalid_type":
			return "invalid type"
		case "required":
			return "required value is null"
		case "blank":
			return "blank value not allowed"
		case "invalid_enum":
			return "value not in allowed set"
		case "pattern":
			return "value does not match pattern"
		case "invalid_format":
			return "invalid format"
		case "too_small":
			return "value too small"
		case "unknown_key":
			return "unknown key"
		case "duplicate_key":
			return "duplicate key"
		case "schema_mismatch":
			return "record does not match its JSON Schema"
		}
	}
	return code
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). Call it during startup, before documents are processed.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
