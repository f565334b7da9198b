// Package model defines the judge domain types.
package model

import "time"

// Difficulty is the problem difficulty tier, ordered Easy < Medium < Hard.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Sample is a visible (input, expected output) pair shown to the user.
type Sample struct {
	Input       string
	Output      string
	Explanation string
}

// TestCase is a hidden (input, expected output) pair used for grading.
type TestCase struct {
	Input  string
	Output string
}

// Problem is the immutable per-version problem definition.
// The judge only reads problems; administration owns writes.
type Problem struct {
	ID           int64
	Title        string
	Difficulty   Difficulty
	Statement    string
	InputFormat  string
	OutputFormat string
	Constraints  string
	Samples      []Sample
	TestCases    []TestCase
	TimeLimit    time.Duration
}
