// Package duel implements timed 1v1 arithmetic duels: problem generation,
// challenge rules, and race-safe resolution on top of the store.
package duel

import (
	"fmt"
	"math/rand"
)

// Problem is a generated arithmetic task. Expression is what gets shown in
// the chat; Answer is always an integer, including for division.
type Problem struct {
	Expression string
	Answer     int64
}

// Operand ranges per operation. Division is built backwards from two small
// factors so the quotient is always whole.
const (
	addSubMin = 10
	addSubMax = 100
	mulMin    = 2
	mulMax    = 15
	divMin    = 2
	divMax    = 12
)

func randRange(min, max int) int64 {
	return int64(min + rand.Intn(max-min+1))
}

// NewProblem generates a random arithmetic problem with one of four
// operations.
func NewProblem() Problem {
	switch rand.Intn(4) {
	case 0:
		a, b := randRange(addSubMin, addSubMax), randRange(addSubMin, addSubMax)
		return Problem{Expression: fmt.Sprintf("%d + %d", a, b), Answer: a + b}
	case 1:
		a, b := randRange(addSubMin, addSubMax), randRange(addSubMin, addSubMax)
		if a < b {
			a, b = b, a
		}
		return Problem{Expression: fmt.Sprintf("%d - %d", a, b), Answer: a - b}
	case 2:
		a, b := randRange(mulMin, mulMax), randRange(mulMin, mulMax)
		return Problem{Expression: fmt.Sprintf("%d × %d", a, b), Answer: a * b}
	default:
		a, b := randRange(divMin, divMax), randRange(divMin, divMax)
		return Problem{Expression: fmt.Sprintf("%d ÷ %d", a*b, b), Answer: a}
	}
}
