package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ReviewStatus is the questionnaire completion state of a review.
type ReviewStatus string

const (
	ReviewStatusPending   ReviewStatus = "pending"
	ReviewStatusCompleted ReviewStatus = "completed"
)

// IsValid checks if the status is one of the known values. Either valid
// status may follow the other; neither is terminal.
func (s ReviewStatus) IsValid() bool {
	return s == ReviewStatusPending || s == ReviewStatusCompleted
}

// Review is a questionnaire response record for one notebook.
// NotebookURI is globally unique across all reviewers.
type Review struct {
	ID            string     `json:"_id"`
	NotebookURI   string     `json:"notebook_uri"`
	ReviewerEmail string     `json:"reviewer_email"`
	Review        ReviewBody `json:"review"`
	CreatedAt     time.Time  `json:"timestamp_created"`
	EditedAt      time.Time  `json:"timestamp_edited"`
}

// ReviewBody holds the mutable questionnaire state.
type ReviewBody struct {
	Status    ReviewStatus `json:"status"`
	Responses []Response   `json:"responses"`
}

// IsCompleted returns true if the reviewer marked the questionnaire done.
func (r *Review) IsCompleted() bool {
	return r.Review.Status == ReviewStatusCompleted
}

// Clone returns a deep copy of the review.
func (r *Review) Clone() *Review {
	out := *r
	out.Review.Responses = CloneResponses(r.Review.Responses)
	return &out
}

// Response is one answer in a questionnaire.
type Response struct {
	QuestionID string        `json:"question_id"`
	Response   ResponseValue `json:"response"`
	Rationale  string        `json:"rationale,omitempty"`
}

// CloneResponses copies a response list. A nil input yields an empty list so
// that stored reviews always serialize responses as [].
func CloneResponses(in []Response) []Response {
	out := make([]Response, len(in))
	for i, resp := range in {
		out[i] = resp
		if resp.Response.raw != nil {
			out[i].Response.raw = append(json.RawMessage(nil), resp.Response.raw...)
		}
	}
	return out
}

// ResponseKind tags the variant held by a ResponseValue.
type ResponseKind string

const (
	ResponseKindString     ResponseKind = "string"
	ResponseKindNumber     ResponseKind = "number"
	ResponseKindBoolean    ResponseKind = "boolean"
	ResponseKindStructured ResponseKind = "structured"
)

// Response value errors.
var (
	ErrResponseMissing = errors.New("response value is missing")
	ErrResponseInvalid = errors.New("response value is not valid JSON")
)

// ResponseValue is a questionnaire answer: a string, a number, a boolean or a
// structured JSON value (object or array). The zero value holds no answer.
type ResponseValue struct {
	kind ResponseKind
	str  string
	num  json.Number
	b    bool
	raw  json.RawMessage
}

// StringValue wraps a string answer.
func StringValue(s string) ResponseValue {
	return ResponseValue{kind: ResponseKindString, str: s}
}

// NumberValue wraps a numeric answer.
func NumberValue(f float64) ResponseValue {
	return ResponseValue{kind: ResponseKindNumber, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

// BoolValue wraps a boolean answer.
func BoolValue(b bool) ResponseValue {
	return ResponseValue{kind: ResponseKindBoolean, b: b}
}

// StructuredValue wraps a JSON object or array answer.
func StructuredValue(raw json.RawMessage) (ResponseValue, error) {
	var v ResponseValue
	if err := v.UnmarshalJSON(raw); err != nil {
		return ResponseValue{}, err
	}
	if v.kind != ResponseKindStructured {
		return ResponseValue{}, fmt.Errorf("%w: expected object or array", ErrResponseInvalid)
	}
	return v, nil
}

// Kind returns the variant tag, or "" for the zero value.
func (v ResponseValue) Kind() ResponseKind {
	return v.kind
}

// IsZero reports whether no answer is held.
func (v ResponseValue) IsZero() bool {
	return v.kind == ""
}

// String returns the string variant.
func (v ResponseValue) String() (string, bool) {
	return v.str, v.kind == ResponseKindString
}

// Number returns the numeric variant.
func (v ResponseValue) Number() (float64, bool) {
	if v.kind != ResponseKindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	return f, err == nil
}

// Bool returns the boolean variant.
func (v ResponseValue) Bool() (bool, bool) {
	return v.b, v.kind == ResponseKindBoolean
}

// Structured returns the raw JSON of the structured variant.
func (v ResponseValue) Structured() (json.RawMessage, bool) {
	return v.raw, v.kind == ResponseKindStructured
}

// Equal compares two values by variant and content.
func (v ResponseValue) Equal(other ResponseValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ResponseKindString:
		return v.str == other.str
	case ResponseKindNumber:
		a, okA := v.Number()
		b, okB := other.Number()
		if !okA || !okB {
			return v.num == other.num
		}
		return a == b
	case ResponseKindBoolean:
		return v.b == other.b
	case ResponseKindStructured:
		return bytes.Equal(v.raw, other.raw)
	}
	return true
}

// MarshalJSON encodes the held variant. The zero value encodes as null.
func (v ResponseValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ResponseKindString:
		return json.Marshal(v.str)
	case ResponseKindNumber:
		return []byte(v.num), nil
	case ResponseKindBoolean:
		return json.Marshal(v.b)
	case ResponseKindStructured:
		return v.raw, nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes any JSON value except null into the matching variant.
func (v *ResponseValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrResponseMissing
	}
	if !json.Valid(trimmed) {
		return ErrResponseInvalid
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
		}
		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
		}
		*v = BoolValue(b)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
		}
		*v = ResponseValue{kind: ResponseKindStructured, raw: buf.Bytes()}
	default:
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
		}
		*v = ResponseValue{kind: ResponseKindNumber, num: n}
	}
	return nil
}
