package services

import "testing"

func TestCronbachAlphaPerfectCorrelation(t *testing.T) {
	// 4 attempts, 3 questions, every attempt all right or all wrong.
	data := [][]float64{
		{1, 1, 1},
		{0, 0, 0},
		{1, 1, 1},
		{0, 0, 0},
	}
	got := CronbachAlpha(data)
	if got < 0.999 || got > 1.001 {
		t.Fatalf("alpha = %f, want ~1.0", got)
	}
}

func TestCronbachAlphaBounds(t *testing.T) {
	data := [][]float64{
		{1, 0, 1},
		{0, 1, 1},
		{1, 1, 0},
		{0, 0, 1},
	}
	got := CronbachAlpha(data)
	if got < 0 || got > 1 {
		t.Fatalf("alpha out of bounds [0,1]: %f", got)
	}
}

func TestCronbachAlphaDegenerate(t *testing.T) {
	cases := map[string][][]float64{
		"empty":        nil,
		"one question": {{1}, {0}},
		"ragged":       {{1, 0}, {1}},
		"constant":     {{1, 1}, {1, 1}},
	}
	for name, data := range cases {
		if got := CronbachAlpha(data); got != 0 {
			t.Fatalf("%s: alpha = %f, want 0", name, got)
		}
	}
}
