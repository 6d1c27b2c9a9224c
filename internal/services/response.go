package services

import (
	"encoding/json"
	"strings"
)

// AnswerResponse is the candidate answer to one question. The set of
// implementations is closed: ChoiceResponse, TextResponse, MatchingResponse.
type AnswerResponse interface {
	responseKind() string
}

// ChoiceResponse selects options of a single- or multiple-choice question.
type ChoiceResponse struct {
	OptionIDs []string `json:"option_ids"`
}

// TextResponse is a free-text answer.
type TextResponse struct {
	Text string `json:"text"`
}

// MatchingResponse maps each left item to the proposed right item.
type MatchingResponse struct {
	Mapping map[string]string `json:"mapping"`
}

func (ChoiceResponse) responseKind() string   { return "choice" }
func (TextResponse) responseKind() string     { return "text" }
func (MatchingResponse) responseKind() string { return "matching" }

// acceptsResponse reports whether resp is the kind of answer a question of
// type qt takes. The stored columns do not record the kind, so a mismatch
// would be reinterpreted on load.
func acceptsResponse(qt QuestionType, resp AnswerResponse) bool {
	switch resp.(type) {
	case ChoiceResponse:
		return qt == QuestionSingleChoice || qt == QuestionMultipleChoice
	case MatchingResponse:
		return qt == QuestionMatching
	case TextResponse:
		return qt == QuestionFreeText
	default:
		return false
	}
}

// EncodeResponse flattens a response into the answers table columns: a single
// selected option goes to option_id, everything else is serialized into
// response_text.
func EncodeResponse(resp AnswerResponse) (optionID *string, text *string, err error) {
	switch r := resp.(type) {
	case ChoiceResponse:
		ids := distinct(r.OptionIDs)
		if len(ids) == 1 {
			id := ids[0]
			return &id, nil, nil
		}
		b, err := json.Marshal(ids)
		if err != nil {
			return nil, nil, err
		}
		s := string(b)
		return nil, &s, nil
	case TextResponse:
		s := r.Text
		return nil, &s, nil
	case MatchingResponse:
		m := r.Mapping
		if m == nil {
			m = map[string]string{}
		}
		b, err := json.Marshal(m)
		if err != nil {
			return nil, nil, err
		}
		s := string(b)
		return nil, &s, nil
	case nil:
		return nil, nil, nil
	default:
		return nil, nil, NewInvalidError("unsupported answer response")
	}
}

// DecodeResponse rebuilds a response from its stored columns, interpreting
// them according to the question type. Payloads that do not decode yield an
// empty response of the expected kind, which the grader scores as incorrect.
func DecodeResponse(qt QuestionType, optionID, text *string) AnswerResponse {
	switch qt {
	case QuestionSingleChoice, QuestionMultipleChoice:
		if optionID != nil && *optionID != "" {
			return ChoiceResponse{OptionIDs: []string{*optionID}}
		}
		var ids []string
		if text != nil {
			if err := json.Unmarshal([]byte(*text), &ids); err != nil {
				ids = nil
			}
		}
		return ChoiceResponse{OptionIDs: ids}
	case QuestionMatching:
		m := map[string]string{}
		if text != nil {
			if err := json.Unmarshal([]byte(*text), &m); err != nil {
				m = map[string]string{}
			}
		}
		return MatchingResponse{Mapping: m}
	default:
		if text == nil {
			return TextResponse{}
		}
		return TextResponse{Text: *text}
	}
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
