package domain

import (
	"fmt"
	"time"
)

type Category string

const (
	CategoryBatsman      Category = "batsman"
	CategoryBowler       Category = "bowler"
	CategoryAllRounder   Category = "allRounder"
	CategoryWicketKeeper Category = "wicketKeeper"
)

var Categories = []Category{
	CategoryBatsman,
	CategoryBowler,
	CategoryAllRounder,
	CategoryWicketKeeper,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryBatsman, CategoryBowler, CategoryAllRounder, CategoryWicketKeeper:
		return true
	}
	return false
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Player is immutable once loaded. An empty Name or Description means the
// field was missing from the feed.
type Player struct {
	ID          string
	Name        string
	Description string
	Category    Category
	Points      float64
	Rank        int
	DateOfBirth *time.Time
}
