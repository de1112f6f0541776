package pids

import (
	"reflect"
	"testing"
)

const (
	pidA = "0b8f1f7e-2f55-4d6e-9a39-3c1c1b2f3a10"
	pidB = "5d1c0e22-8a7b-4f0e-b1a4-7e9d2c3b4a51"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "quoted list", input: `["` + pidA + `", "` + pidB + `"]`, want: []string{pidA, pidB}},
		{name: "bare list", input: "[" + pidA + ", " + pidB + "]", want: []string{pidA, pidB}},
		{name: "single quotes no brackets", input: "'" + pidA + "',\n'" + pidB + "'\n", want: []string{pidA, pidB}},
		{name: "blank entries", input: "[" + pidA + ",, ]", want: []string{pidA}},
		{name: "empty list", input: "[ ]", want: nil},
		{name: "empty file", input: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseList(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFromMessage(t *testing.T) {
	message := `gg! {"Pid":"` + pidA + `","T":12} and rematch {"Pid":"` + pidB + `","T":3}`
	got := FromMessage(message)
	if !reflect.DeepEqual(got, []string{pidA, pidB}) {
		t.Fatalf("unexpected ids %v", got)
	}
	if got := FromMessage(`{"Pid":"x","T":"later"}`); got != nil {
		t.Fatalf("expected no ids for non-numeric T, got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	valid, invalid := Normalize([]string{pidA, "not-a-pid", " " + pidB, "0B8F1F7E-2F55-4D6E-9A39-3C1C1B2F3A10"})
	if !reflect.DeepEqual(valid, []string{pidA, pidB}) {
		t.Fatalf("unexpected valid ids %v", valid)
	}
	if !reflect.DeepEqual(invalid, []string{"not-a-pid"}) {
		t.Fatalf("unexpected invalid ids %v", invalid)
	}
	if !Valid(pidA) || Valid("nope") {
		t.Fatalf("Valid gave unexpected results")
	}
}
