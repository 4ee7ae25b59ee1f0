package catalog

import (
	"errors"
	"sort"
	"time"

	"github.com/auricpulse/goldpulse/pkg/models"
	"github.com/auricpulse/goldpulse/pkg/utils"
)

// ErrNoEligibleContract is returned when no contract in the list expires
// after the cutoff.
var ErrNoEligibleContract = errors.New("no contract expires after the cutoff")

// eligibilityWindow keeps the selector off contracts about to expire: a
// contract qualifies only when its expiry lies strictly after now plus this
// window.
const eligibilityWindow = 7 * 24 * time.Hour

// Select returns the token of the nearest-dated contract whose expiry is
// strictly after now plus the eligibility window. Contracts with
// unparseable expiry strings are skipped. The result is deterministic for a
// given input: ties on expiry break on token.
func Select(contracts []models.Contract, now time.Time) (string, error) {
	cutoff := now.Add(eligibilityWindow)

	type dated struct {
		token  string
		expiry time.Time
	}
	var eligible []dated
	for _, c := range contracts {
		exp, err := utils.ParseExpiry(c.Expiry)
		if err != nil {
			continue
		}
		if exp.After(cutoff) {
			eligible = append(eligible, dated{token: c.Token, expiry: exp})
		}
	}
	if len(eligible) == 0 {
		return "", ErrNoEligibleContract
	}

	sort.Slice(eligible, func(i, j int) bool {
		if !eligible[i].expiry.Equal(eligible[j].expiry) {
			return eligible[i].expiry.Before(eligible[j].expiry)
		}
		return eligible[i].token < eligible[j].token
	})
	return eligible[0].token, nil
}
