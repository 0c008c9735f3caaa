package guestlist

import (
	"sort"

	"github.com/themainkeys/wingman.app-sub000/internal/identity"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
)

const (
	InitialPageSize = 15
	PageStep        = 10

	minRosterSize   = 20
	rosterSizeRange = 31
	orderModulus    = 1000
)

// Seed hashes date+venueID with the 32-bit "h = 31*h + c" string hash and returns its
// absolute value.
func Seed(date models.Date, venueID string) int64 {
	var h int32
	for _, c := range string(date) + venueID {
		h = 31*h + int32(c)
	}
	s := int64(h)
	if s < 0 {
		s = -s
	}
	return s
}

// Roster is the ordered attendee list for one venue night.
type Roster struct {
	Date    models.Date
	VenueID string
	Seed    int64
	Members []identity.User
}

// BuildRoster orders the population by (id * seed) mod 1000, ties by id, and keeps the first
// 20 + seed mod 31 users. The result depends only on its inputs.
func BuildRoster(date models.Date, venueID string, population []identity.User) Roster {
	seed := Seed(date, venueID)
	users := make([]identity.User, len(population))
	copy(users, population)

	key := func(id int64) int64 {
		return (mod(id, orderModulus) * (seed % orderModulus)) % orderModulus
	}
	sort.SliceStable(users, func(i, j int) bool {
		ki, kj := key(users[i].ID), key(users[j].ID)
		if ki != kj {
			return ki < kj
		}
		return users[i].ID < users[j].ID
	})

	size := minRosterSize + int(seed%rosterSizeRange)
	if size > len(users) {
		size = len(users)
	}
	return Roster{Date: date, VenueID: venueID, Seed: seed, Members: users[:size]}
}

func mod(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// FemaleCount is the number of members holding the female access tier.
func (r Roster) FemaleCount() int {
	n := 0
	for _, u := range r.Members {
		if u.Tier == identity.TierFemaleAccess {
			n++
		}
	}
	return n
}

type RosterMember struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RosterView is the page of the roster revealed to a viewer.
type RosterView struct {
	Date        models.Date    `json:"date"`
	VenueID     string         `json:"venue_id"`
	Total       int            `json:"total"`
	Shown       int            `json:"shown"`
	HasMore     bool           `json:"has_more"`
	Members     []RosterMember `json:"members"`
	FemaleCount *int           `json:"female_count,omitempty"`
}

// View reveals the first 15 members, plus 10 more for every additional page. The female
// headcount is included only for male-access viewers.
func (r Roster) View(viewer identity.User, page int) RosterView {
	if page < 0 {
		page = 0
	}
	// every page past this one already shows the whole roster
	if last := len(r.Members)/PageStep + 1; page > last {
		page = last
	}
	shown := InitialPageSize + page*PageStep
	if shown > len(r.Members) {
		shown = len(r.Members)
	}
	v := RosterView{
		Date:    r.Date,
		VenueID: r.VenueID,
		Total:   len(r.Members),
		Shown:   shown,
		HasMore: shown < len(r.Members),
		Members: make([]RosterMember, 0, shown),
	}
	for _, u := range r.Members[:shown] {
		v.Members = append(v.Members, RosterMember{ID: u.ID, Name: u.Name})
	}
	if viewer.Tier == identity.TierMaleAccess {
		n := r.FemaleCount()
		v.FemaleCount = &n
	}
	return v
}
