package handler

import (
    "reflect"
    "testing"
)

func validForm() ReserveForm {
    return ReserveForm{
        Name:    "Jordan Baker",
        Email:   "jordan@example.com",
        Phone:   "555-010-1234",
        Squares: []int{3, 17, 42},
    }
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
    form := validForm()
    numbers, err := form.Validate()
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !reflect.DeepEqual(numbers, []int{3, 17, 42}) {
        t.Fatalf("expected [3 17 42], got %v", numbers)
    }
}

func TestValidateRejectsBadFields(t *testing.T) {
    cases := []struct {
        name   string
        mutate func(*ReserveForm)
    }{
        {"empty name", func(f *ReserveForm) { f.Name = "  " }},
        {"email without at", func(f *ReserveForm) { f.Email = "jordan.example.com" }},
        {"email without domain dot", func(f *ReserveForm) { f.Email = "jordan@example" }},
        {"phone too short", func(f *ReserveForm) { f.Phone = "555-1234" }},
        {"no squares", func(f *ReserveForm) { f.Squares = nil }},
        {"square zero", func(f *ReserveForm) { f.Squares = []int{0} }},
        {"square above board", func(f *ReserveForm) { f.Squares = []int{66} }},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            form := validForm()
            tc.mutate(&form)
            if _, err := form.Validate(); err == nil {
                t.Fatal("expected validation error, got nil")
            }
        })
    }
}

func TestValidateDeduplicatesPreservingOrder(t *testing.T) {
    form := validForm()
    form.Squares = []int{7, 3, 7, 3, 12}
    numbers, err := form.Validate()
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !reflect.DeepEqual(numbers, []int{7, 3, 12}) {
        t.Fatalf("expected [7 3 12], got %v", numbers)
    }
}

func TestValidateAcceptsFormattedPhone(t *testing.T) {
    form := validForm()
    form.Phone = "(555) 010-1234"
    if _, err := form.Validate(); err != nil {
        t.Fatalf("formatted phone should pass: %v", err)
    }
}

func TestPickWinnerSingleCandidate(t *testing.T) {
    intn := func(n int) int {
        t.Fatal("intn should not be called for a single candidate")
        return 0
    }
    if got := pickWinner([]int{23}, intn); got != 23 {
        t.Fatalf("expected 23, got %d", got)
    }
}

func TestPickWinnerUsesRandomIndex(t *testing.T) {
    candidates := []int{4, 8, 15, 16}
    for i := range candidates {
        idx := i
        got := pickWinner(candidates, func(n int) int {
            if n != len(candidates) {
                t.Fatalf("intn bound should be %d, got %d", len(candidates), n)
            }
            return idx
        })
        if got != candidates[idx] {
            t.Fatalf("index %d should pick %d, got %d", idx, candidates[idx], got)
        }
    }
}

func TestMissingNumbers(t *testing.T) {
    got := missingNumbers([]int{1, 2, 3, 4}, []int{2, 4})
    if !reflect.DeepEqual(got, []int{1, 3}) {
        t.Fatalf("expected [1 3], got %v", got)
    }
    if got := missingNumbers([]int{1, 2}, []int{1, 2}); len(got) != 0 {
        t.Fatalf("expected no missing numbers, got %v", got)
    }
}
