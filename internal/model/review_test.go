package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestResponseValue_UnmarshalDetectsKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  ResponseKind
	}{
		{name: "string", input: `"yes"`, want: ResponseKindString},
		{name: "integer", input: `3`, want: ResponseKindNumber},
		{name: "negative float", input: `-1.5`, want: ResponseKindNumber},
		{name: "true", input: `true`, want: ResponseKindBoolean},
		{name: "false", input: `false`, want: ResponseKindBoolean},
		{name: "object", input: `{"a": 1}`, want: ResponseKindStructured},
		{name: "array", input: `[1, 2]`, want: ResponseKindStructured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v ResponseValue
			if err := json.Unmarshal([]byte(tt.input), &v); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.input, err)
			}
			if v.Kind() != tt.want {
				t.Errorf("Kind() = %s, want %s", v.Kind(), tt.want)
			}
		})
	}
}

func TestResponseValue_RejectsNull(t *testing.T) {
	t.Parallel()

	var resp Response
	err := json.Unmarshal([]byte(`{"question_id":"q1","response":null}`), &resp)
	if !errors.Is(err, ErrResponseMissing) {
		t.Fatalf("expected ErrResponseMissing, got %v", err)
	}
}

func TestResponseValue_MissingFieldIsZero(t *testing.T) {
	t.Parallel()

	var resp Response
	if err := json.Unmarshal([]byte(`{"question_id":"q1"}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Response.IsZero() {
		t.Errorf("expected zero response value, got kind %s", resp.Response.Kind())
	}
}

func TestResponseValue_PreservesEncoding(t *testing.T) {
	t.Parallel()

	input := `[{"question_id":"q1","response":4},{"question_id":"q2","response":{"x": [1, 2]},"rationale":"because"},{"question_id":"q3","response":"free text"},{"question_id":"q4","response":false}]`

	var responses []Response
	if err := json.Unmarshal([]byte(input), &responses); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	out, err := json.Marshal(responses)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `[{"question_id":"q1","response":4},{"question_id":"q2","response":{"x":[1,2]},"rationale":"because"},{"question_id":"q3","response":"free text"},{"question_id":"q4","response":false}]`
	if string(out) != want {
		t.Errorf("marshal = %s, want %s", out, want)
	}
}

func TestResponseValue_Accessors(t *testing.T) {
	t.Parallel()

	if n, ok := NumberValue(2.5).Number(); !ok || n != 2.5 {
		t.Errorf("Number() = %v, %v; want 2.5, true", n, ok)
	}
	if _, ok := StringValue("a").Number(); ok {
		t.Error("string value should not report a number")
	}
	if b, ok := BoolValue(true).Bool(); !ok || !b {
		t.Errorf("Bool() = %v, %v; want true, true", b, ok)
	}

	structured, err := StructuredValue(json.RawMessage(`{ "k" : "v" }`))
	if err != nil {
		t.Fatalf("StructuredValue: %v", err)
	}
	if raw, ok := structured.Structured(); !ok || string(raw) != `{"k":"v"}` {
		t.Errorf("Structured() = %s, %v", raw, ok)
	}

	if _, err := StructuredValue(json.RawMessage(`"plain"`)); !errors.Is(err, ErrResponseInvalid) {
		t.Errorf("expected ErrResponseInvalid for scalar, got %v", err)
	}
}

func TestResponseValue_Equal(t *testing.T) {
	t.Parallel()

	if !NumberValue(1).Equal(NumberValue(1.0)) {
		t.Error("equal numbers should compare equal")
	}
	if StringValue("1").Equal(NumberValue(1)) {
		t.Error("different kinds should not compare equal")
	}
}

func TestReviewStatus_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status ReviewStatus
		want   bool
	}{
		{ReviewStatusPending, true},
		{ReviewStatusCompleted, true},
		{"archived", false},
		{"Completed", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.status.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestResponseValue_EqualOverflowingNumbers(t *testing.T) {
	t.Parallel()

	var a, b, c ResponseValue
	if err := json.Unmarshal([]byte("1e400"), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal([]byte("2e400"), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal([]byte("1e400"), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if a.Equal(b) {
		t.Error("distinct out-of-range numbers should not compare equal")
	}
	if !a.Equal(c) {
		t.Error("identical out-of-range numbers should compare equal")
	}
}

func TestReview_CloneIsDeep(t *testing.T) {
	t.Parallel()

	structured, _ := StructuredValue(json.RawMessage(`{"a":1}`))
	original := &Review{
		NotebookURI: "https://example.org/nb.ipynb",
		Review: ReviewBody{
			Status:    ReviewStatusPending,
			Responses: []Response{{QuestionID: "q1", Response: structured}},
		},
	}

	clone := original.Clone()
	clone.Review.Responses[0].QuestionID = "changed"

	if original.Review.Responses[0].QuestionID != "q1" {
		t.Error("mutating clone changed the original responses")
	}
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	if !AdminIdentity().IsAdmin() {
		t.Error("admin identity should be admin")
	}
	if AdminIdentity().IsUser() {
		t.Error("admin identity should not be a user")
	}
	if !UserIdentity("a@x.com").IsUser() {
		t.Error("user identity should be a user")
	}
	if UserIdentity("").IsUser() {
		t.Error("user identity without email should not be a user")
	}
	if (Identity{}).Level != Unauthorized {
		t.Error("zero identity should be unauthorized")
	}
}
