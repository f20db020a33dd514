package engine

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

type Outcome string

const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeInvalidWord Outcome = "invalid_word"
	OutcomeDuplicate   Outcome = "duplicate"
)

type Submission struct {
	Outcome  Outcome
	Word     string
	Delta    int
	First    bool
	Finalize bool // the submitter has now found every target word
}

// Normalize trims, composes and upper-cases a word. A Caser is stateful,
// so one is built per call.
func Normalize(raw string) string {
	return cases.Upper(language.Und).String(norm.NFC.String(strings.TrimSpace(raw)))
}

// SubmitWord validates and scores one submission. Checks run in a fixed
// order: status, throttle, membership, duplicate. A word outside the target
// set is reported invalid_word whatever the status.
func SubmitWord(s *State, userID, raw string, now time.Time) (Submission, error) {
	p := s.Player(userID)
	if p == nil {
		return Submission{}, ErrNotParticipant
	}

	word := Normalize(raw)
	if word == "" {
		return Submission{}, ErrInvalidInput
	}

	sub := Submission{Word: word}
	_, isTarget := s.targets[word]

	if s.Status != StatusActive {
		sub.Outcome = OutcomeInvalid
		if !isTarget {
			sub.Outcome = OutcomeInvalidWord
		}
		return sub, nil
	}

	// Every attempt moves the throttle window, accepted or not.
	last := p.LastSubmitAt
	p.LastSubmitAt = now
	if !last.IsZero() && now.Sub(last) < s.Rules.MinSubmitInterval {
		sub.Outcome = OutcomeRateLimited
		return sub, nil
	}

	if !isTarget {
		sub.Outcome = OutcomeInvalidWord
		return sub, nil
	}
	if p.HasFound(word) {
		sub.Outcome = OutcomeDuplicate
		return sub, nil
	}

	p.found[word] = struct{}{}
	p.Found = append(p.Found, word)
	if p.FirstWordAt == nil {
		at := now
		p.FirstWordAt = &at
	}

	if _, owned := s.WordOwners[word]; !owned {
		s.WordOwners[word] = p.UserID
		sub.First = true
	}

	sub.Delta = wordPoints(s.Rules, word, sub.First)
	p.Score += sub.Delta
	sub.Outcome = OutcomeAccepted

	if len(p.Found) == len(s.targets) {
		at := now
		p.CompletedAt = &at
		sub.Finalize = true
	}
	return sub, nil
}

func wordPoints(r Rules, word string, first bool) int {
	points := r.BasePoints
	if utf8.RuneCountInString(word) >= r.LongWordLength {
		points += r.LongWordBonus
	}
	if first {
		points += r.FirstFinderBonus
	}
	return points
}
