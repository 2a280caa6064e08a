package matching

import (
	"time"

	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/model"
)

// Request defaults applied when the host leaves a filter unset.
const (
	DefaultAgeMin        = 18
	DefaultAgeMax        = 99
	DefaultMaxDistanceKm = 50.0
	DefaultLanguage      = "korean"
	DefaultExperience    = "any"
	DefaultRequestTTL    = 7 * 24 * time.Hour
)

var transitions = map[model.MatchStatus][]model.MatchStatus{
	model.MatchStatusOpen:    {model.MatchStatusMatched, model.MatchStatusCancelled, model.MatchStatusExpired},
	model.MatchStatusMatched: {model.MatchStatusCompleted},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to model.MatchStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func Terminal(s model.MatchStatus) bool {
	return len(transitions[s]) == 0
}

// CheckHostTransition validates a host-driven transition of req to status `to` at now.
// A request that cannot make the move is a conflict whoever asks, so status is checked
// before the actor. An open request already past its expiry is treated as expired.
func CheckHostTransition(req *model.MatchRequest, actorID string, to model.MatchStatus, now time.Time) error {
	if !CanTransition(req.Status, to) {
		return apperr.Conflict("match request %s is %s", req.ID, req.Status)
	}
	if req.Status == model.MatchStatusOpen && !req.ExpiresAt.IsZero() && !now.Before(req.ExpiresAt) {
		return apperr.Conflict("match request %s expired at %s", req.ID, req.ExpiresAt.Format(time.RFC3339))
	}
	if req.HostUserID != actorID {
		return apperr.Unauthorized("user %s is not the host of match request %s", actorID, req.ID)
	}
	return nil
}

// CheckReject validates a host rejecting a candidate. The request stays open.
func CheckReject(req *model.MatchRequest, actorID string, now time.Time) error {
	return CheckHostTransition(req, actorID, model.MatchStatusMatched, now)
}

// ApplyDefaults fills unset filters and returns the request's expiry.
func ApplyDefaults(in model.CreateMatchRequest, now time.Time, ttl time.Duration) (model.MatchFilters, time.Time) {
	f := model.MatchFilters{
		AgeMin:          in.AgeMin,
		AgeMax:          in.AgeMax,
		Gender:          in.Gender,
		MaxDistanceKm:   in.MaxDistanceKm,
		Languages:       in.Languages,
		Interests:       in.Interests,
		ExperienceLevel: in.ExperienceLevel,
	}
	if f.AgeMin == 0 {
		f.AgeMin = DefaultAgeMin
	}
	if f.AgeMax == 0 {
		f.AgeMax = DefaultAgeMax
	}
	if f.Gender == "" {
		f.Gender = model.GenderAny
	}
	if f.MaxDistanceKm == 0 {
		f.MaxDistanceKm = DefaultMaxDistanceKm
	}
	if len(f.Languages) == 0 {
		f.Languages = []string{DefaultLanguage}
	}
	if f.ExperienceLevel == "" {
		f.ExperienceLevel = DefaultExperience
	}
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}
	return f, now.Add(ttl)
}

// SweepTarget returns the status a request should move to at now, if any: open requests
// past expiry expire, matched requests whose preferred date has passed complete.
func SweepTarget(req *model.MatchRequest, now time.Time) (model.MatchStatus, bool) {
	switch req.Status {
	case model.MatchStatusOpen:
		if !now.Before(req.ExpiresAt) {
			return model.MatchStatusExpired, true
		}
	case model.MatchStatusMatched:
		if now.After(endOfDay(req.PreferredDate)) {
			return model.MatchStatusCompleted, true
		}
	}
	return "", false
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
